package model

import "time"

// Student is a single stored student record.
type Student struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Midterm   float64   `json:"midterm"`
	Final     float64   `json:"final"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentInput is the create/update payload as submitted by the client.
// Pointer fields distinguish an absent value from a zero value.
type StudentInput struct {
	Name    *string  `json:"name" validate:"required,notblank"`
	Age     *int     `json:"age" validate:"required"`
	Gender  *string  `json:"gender" validate:"required,notblank"`
	Midterm *float64 `json:"midterm" validate:"required"`
	Final   *float64 `json:"final" validate:"required"`
}

// StudentFields holds the five business fields of a validated submission.
type StudentFields struct {
	Name    string
	Age     int
	Gender  string
	Midterm float64
	Final   float64
}

// Apply copies the business fields onto s, leaving ID and CreatedAt alone.
func (f StudentFields) Apply(s *Student) {
	s.Name = f.Name
	s.Age = f.Age
	s.Gender = f.Gender
	s.Midterm = f.Midterm
	s.Final = f.Final
}

// StudentFilter narrows a listing. An empty Query lists everything.
type StudentFilter struct {
	Query string
}

// ListStudentsQuery is bound from the list endpoint's query string.
type ListStudentsQuery struct {
	Q string `form:"q" json:"q" binding:"omitempty,max=100"`
}
