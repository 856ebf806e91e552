package config

import (
	"fmt"
)

// RedisKeyStruct builds the key names used by the redis student store.
type RedisKeyStruct struct {
	prefix string
}

// NewRedisKeyStruct returns key builders rooted at prefix.
func NewRedisKeyStruct(prefix string) *RedisKeyStruct {
	if prefix == "" {
		prefix = "students"
	}
	return &RedisKeyStruct{prefix: prefix}
}

// SequenceKey returns the key of the INCR counter used to assign student ids
func (r *RedisKeyStruct) SequenceKey() string {
	return fmt.Sprintf("%s:seq", r.prefix)
}

// StudentKey returns the key of the hash holding a single student's fields
func (r *RedisKeyStruct) StudentKey(id int) string {
	return fmt.Sprintf("%s:record:%d", r.prefix, id)
}

// CreatedIndexKey returns the sorted set of student ids scored by created_at
func (r *RedisKeyStruct) CreatedIndexKey() string {
	return fmt.Sprintf("%s:index:created_at", r.prefix)
}
