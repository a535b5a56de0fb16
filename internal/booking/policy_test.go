package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelG-buaa/DB/internal/user"
)

func TestCan(t *testing.T) {
	owner := Actor{UserID: "u1", Role: user.RoleStudent}
	other := Actor{UserID: "u2", Role: user.RoleStudent}
	teacher := Actor{UserID: "t1", Role: user.RoleTeacher}
	admin := Actor{UserID: "a1", Role: user.RoleAdmin}
	anonymous := Actor{}

	b := &Booking{ID: "b1", UserID: "u1"}

	allActions := []Action{
		ActionCreate, ActionView, ActionViewAll, ActionEdit, ActionSetStatus,
		ActionApprove, ActionReject, ActionCancel, ActionHardDelete,
	}

	for _, a := range allActions {
		assert.True(t, Can(teacher, a, b), "teacher %s", a)
		assert.True(t, Can(admin, a, b), "admin %s", a)
		assert.False(t, Can(anonymous, a, b), "anonymous %s", a)
	}

	assert.True(t, Can(owner, ActionCreate, nil))
	assert.True(t, Can(owner, ActionView, b))
	assert.True(t, Can(owner, ActionEdit, b))
	assert.True(t, Can(owner, ActionCancel, b))

	for _, a := range []Action{ActionViewAll, ActionSetStatus, ActionApprove, ActionReject, ActionHardDelete} {
		assert.False(t, Can(owner, a, b), "owner %s", a)
	}

	for _, a := range []Action{ActionView, ActionEdit, ActionCancel} {
		assert.False(t, Can(other, a, b), "non-owner %s", a)
		assert.False(t, Can(owner, a, nil), "nil booking %s", a)
	}
}
