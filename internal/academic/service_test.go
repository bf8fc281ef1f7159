package academic

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// validation failures return before any repository call, so a nil DB is
// safe here.
func newValidationService(t *testing.T) *Service {
	t.Helper()
	return NewService(nil, nil, zap.NewNop().Sugar())
}

func TestCreateSemester_NameCodeMismatch(t *testing.T) {
	svc := newValidationService(t)
	_, err := svc.CreateSemester(context.Background(), &SemesterInput{
		Name:       "Autumn",
		Year:       "2024",
		Code:       "03",
		StartMonth: "January",
		EndMonth:   "April",
	})
	assert.ErrorIs(t, err, ErrSemesterMismatch)
}

func TestCreateSemester_RejectsUnknownName(t *testing.T) {
	svc := newValidationService(t)
	_, err := svc.CreateSemester(context.Background(), &SemesterInput{
		Name:       "Winter",
		Year:       "2024",
		Code:       "01",
		StartMonth: "January",
		EndMonth:   "April",
	})
	var verr validator.ValidationErrors
	require.ErrorAs(t, err, &verr)
}

func TestCreateSemester_RejectsBadYear(t *testing.T) {
	svc := newValidationService(t)
	for _, year := range []string{"", "24", "twenty"} {
		_, err := svc.CreateSemester(context.Background(), &SemesterInput{
			Name:       "Autumn",
			Year:       year,
			Code:       "01",
			StartMonth: "January",
			EndMonth:   "April",
		})
		assert.Error(t, err, "year %q", year)
	}
}

func TestCreateDepartment_RequiresFacultyRef(t *testing.T) {
	svc := newValidationService(t)
	_, err := svc.CreateDepartment(context.Background(), &DepartmentInput{Name: "CSE"})
	var verr validator.ValidationErrors
	require.ErrorAs(t, err, &verr)
}

func TestSemesterCodes_CoverEveryAllowedName(t *testing.T) {
	assert.Equal(t, map[string]string{"Autumn": "01", "Summer": "02", "Fall": "03"}, semesterCodes)
}
