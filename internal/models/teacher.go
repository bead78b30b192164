package models

import (
	"fmt"
	"strings"
	"time"
)

// TeacherType classifies which students a teacher can take.
type TeacherType string

const (
	TeacherTypeKids   TeacherType = "kids"
	TeacherTypeAdult  TeacherType = "adult"
	TeacherTypeMixed  TeacherType = "mixed"
	TeacherTypeExpert TeacherType = "expert"
)

// AllTeacherTypes lists every teacher type in display order.
var AllTeacherTypes = []TeacherType{TeacherTypeKids, TeacherTypeAdult, TeacherTypeMixed, TeacherTypeExpert}

// ParseTeacherType validates a teacher type filter. An empty value means no
// preference and is treated as mixed.
func ParseTeacherType(raw string) (TeacherType, error) {
	value := TeacherType(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return TeacherTypeMixed, nil
	}
	for _, t := range AllTeacherTypes {
		if value == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown teacher type %q", raw)
}

// Teacher approval states.
const (
	TeacherStatusPending  = "pending"
	TeacherStatusApproved = "approved"
)

// Teacher is the subset of a teacher profile the booking core reads.
type Teacher struct {
	ID          string      `db:"id" json:"id"`
	FullName    string      `db:"full_name" json:"full_name"`
	Email       string      `db:"email" json:"email"`
	TeacherType TeacherType `db:"teacher_type" json:"teacher_type"`
	Timezone    string      `db:"timezone" json:"timezone"`
	Status      string      `db:"status" json:"status"`
	Role        UserRole    `db:"role" json:"role"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Bookable reports whether searches and reservations may use the teacher.
func (t Teacher) Bookable() bool {
	return t.Status == TeacherStatusApproved && t.Role == RoleTeacher
}
