package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/model"
)

// updateStudentScript overwrites the business fields of an existing hash
// and returns its created_at, or nil when the hash does not exist.
var updateStudentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'age', ARGV[2], 'gender', ARGV[3], 'midterm', ARGV[4], 'final', ARGV[5])
return redis.call('HGET', KEYS[1], 'created_at')
`)

// deleteStudentScript removes the hash and its index entry together.
var deleteStudentScript = redis.NewScript(`
if redis.call('DEL', KEYS[1]) == 0 then
	return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

// redisStudent is the hash layout of one student.
type redisStudent struct {
	ID        int     `redis:"id"`
	Name      string  `redis:"name"`
	Age       int     `redis:"age"`
	Gender    string  `redis:"gender"`
	Midterm   float64 `redis:"midterm"`
	Final     float64 `redis:"final"`
	CreatedAt int64   `redis:"created_at"`
}

func (h redisStudent) toModel() model.Student {
	return model.Student{
		ID:        h.ID,
		Name:      h.Name,
		Age:       h.Age,
		Gender:    h.Gender,
		Midterm:   h.Midterm,
		Final:     h.Final,
		CreatedAt: time.UnixMicro(h.CreatedAt).UTC(),
	}
}

// RedisStudentStore keeps each student as a hash, ids from an INCR
// sequence, and a sorted set of ids scored by created_at.
type RedisStudentStore struct {
	rdb  *redis.Client
	keys *config.RedisKeyStruct
}

// NewRedisStudentStore creates a store whose keys start with prefix.
func NewRedisStudentStore(rdb *redis.Client, prefix string) *RedisStudentStore {
	return &RedisStudentStore{rdb: rdb, keys: config.NewRedisKeyStruct(prefix)}
}

// Name implements StudentStore.
func (r *RedisStudentStore) Name() string { return config.BackendRedis }

// Ping checks that the server answers.
func (r *RedisStudentStore) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// List returns matching students, newest first.
func (r *RedisStudentStore) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	ids, err := r.rdb.ZRevRange(ctx, r.keys.CreatedIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, classifyRedisError("list students", err)
	}

	students := make([]model.Student, 0, len(ids))
	if len(ids) == 0 {
		return students, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, raw := range ids {
			id, convErr := strconv.Atoi(raw)
			if convErr != nil {
				return fmt.Errorf("corrupt index member %q: %w", raw, convErr)
			}
			cmds[i] = pipe.HGetAll(ctx, r.keys.StudentKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, classifyRedisError("list students", err)
	}

	matcher, filtered := newStudentMatcher(filter.Query)
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			// Deleted between the index read and the fetch.
			continue
		}
		var h redisStudent
		if err := cmd.Scan(&h); err != nil {
			return nil, fmt.Errorf("decode student: %w", err)
		}
		s := h.toModel()
		if filtered && !matcher.match(s) {
			continue
		}
		students = append(students, s)
	}
	sortNewestFirst(students)
	return students, nil
}

// GetByID retrieves a student by ID.
func (r *RedisStudentStore) GetByID(ctx context.Context, id int) (*model.Student, error) {
	cmd := r.rdb.HGetAll(ctx, r.keys.StudentKey(id))
	if err := cmd.Err(); err != nil {
		return nil, classifyRedisError(fmt.Sprintf("get student %d", id), err)
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrNotFound
	}

	var h redisStudent
	if err := cmd.Scan(&h); err != nil {
		return nil, fmt.Errorf("decode student %d: %w", id, err)
	}
	s := h.toModel()
	return &s, nil
}

// Create writes the hash and index entry in one MULTI/EXEC block.
func (r *RedisStudentStore) Create(ctx context.Context, fields model.StudentFields) (*model.Student, error) {
	seq, err := r.rdb.Incr(ctx, r.keys.SequenceKey()).Result()
	if err != nil {
		return nil, classifyRedisError("allocate student id", err)
	}

	s := &model.Student{ID: int(seq), CreatedAt: now()}
	fields.Apply(s)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.keys.StudentKey(s.ID),
			"id", s.ID,
			"name", s.Name,
			"age", s.Age,
			"gender", s.Gender,
			"midterm", formatFloat(s.Midterm),
			"final", formatFloat(s.Final),
			"created_at", s.CreatedAt.UnixMicro(),
		)
		pipe.ZAdd(ctx, r.keys.CreatedIndexKey(), redis.Z{
			Score:  float64(s.CreatedAt.UnixMicro()),
			Member: strconv.Itoa(s.ID),
		})
		return nil
	})
	if err != nil {
		return nil, classifyRedisError("insert student", err)
	}
	return s, nil
}

// Update replaces a student's business fields atomically.
func (r *RedisStudentStore) Update(ctx context.Context, id int, fields model.StudentFields) (*model.Student, error) {
	created, err := updateStudentScript.Run(ctx, r.rdb,
		[]string{r.keys.StudentKey(id)},
		fields.Name, fields.Age, fields.Gender, formatFloat(fields.Midterm), formatFloat(fields.Final),
	).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, classifyRedisError(fmt.Sprintf("update student %d", id), err)
	}

	micros, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of student %d: %w", id, err)
	}

	s := &model.Student{ID: id, CreatedAt: time.UnixMicro(micros).UTC()}
	fields.Apply(s)
	return s, nil
}

// Delete removes a student by ID.
func (r *RedisStudentStore) Delete(ctx context.Context, id int) error {
	removed, err := deleteStudentScript.Run(ctx, r.rdb,
		[]string{r.keys.StudentKey(id), r.keys.CreatedIndexKey()},
		strconv.Itoa(id),
	).Int()
	if err != nil {
		return classifyRedisError(fmt.Sprintf("delete student %d", id), err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the client and its connection pool.
func (r *RedisStudentStore) Close() error {
	return r.rdb.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func classifyRedisError(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
