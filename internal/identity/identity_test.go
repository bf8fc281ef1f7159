package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentScope_Encode(t *testing.T) {
	sc := StudentScope("2024", "01")
	assert.Equal(t, "student:2024:01", sc.Key)
	assert.Equal(t, "2024010001", sc.Encode(1))
	assert.Equal(t, "2024019999", sc.Encode(9999))
}

func TestGlobalScopes_Encode(t *testing.T) {
	assert.Equal(t, "F-00001", FacultyScope().Encode(1))
	assert.Equal(t, "A-00042", AdminScope().Encode(42))
}

func TestParse_Roundtrip(t *testing.T) {
	for _, tc := range []struct {
		sc Scope
		n  int64
	}{
		{StudentScope("2024", "01"), 1},
		{StudentScope("2024", "03"), 9999},
		{FacultyScope(), 7},
		{AdminScope(), 99999},
	} {
		got, err := tc.sc.Parse(tc.sc.Encode(tc.n))
		require.NoError(t, err, "scope %s", tc.sc.Key)
		assert.Equal(t, tc.n, got)
	}
}

func TestParse_WrongPrefix(t *testing.T) {
	_, err := FacultyScope().Parse("A-00001")
	assert.Error(t, err)
}

func TestParse_WrongWidth(t *testing.T) {
	// a 5-digit suffix on a 4-wide scope belongs to another numbering family
	_, err := StudentScope("2024", "01").Parse("20240100001")
	assert.Error(t, err)

	_, err = StudentScope("2024", "01").Parse("2024010")
	assert.Error(t, err)
}

func TestParse_NonNumericSuffix(t *testing.T) {
	_, err := StudentScope("2024", "01").Parse("202401abcd")
	assert.Error(t, err)
}

func TestScopes_AreDistinctPerSemester(t *testing.T) {
	a := StudentScope("2024", "01")
	b := StudentScope("2024", "02")
	assert.NotEqual(t, a.Key, b.Key)
	assert.NotEqual(t, a.Encode(1), b.Encode(1))
}
