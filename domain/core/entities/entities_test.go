package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestNewCompletedUpload(t *testing.T) {
	result := AnalysisResult{CellCount: 120, CellTypes: []string{"Platelets"}, ConfidenceScore: 0.81}

	r, err := NewCompletedUpload("user-1", "slide.png", "upload://user-1/slide.png", result)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.StatusCompleted, r.Status)
	assert.Equal(t, 120, r.CellCount)
	require.NotNil(t, r.AnalysisResult)

	_, err = NewCompletedUpload("", "slide.png", "", result)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewCompletedUpload("user-1", "slide.png", "", AnalysisResult{ConfidenceScore: 1.2})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUploadRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  UploadRecord
		wantErr bool
	}{
		{"completed with result", UploadRecord{Status: valueobjects.StatusCompleted, AnalysisResult: &AnalysisResult{}}, false},
		{"completed without result", UploadRecord{Status: valueobjects.StatusCompleted}, true},
		{"processing with result", UploadRecord{Status: valueobjects.StatusProcessing, AnalysisResult: &AnalysisResult{}}, true},
		{"failed without result", UploadRecord{Status: valueobjects.StatusFailed}, false},
		{"negative cells", UploadRecord{Status: valueobjects.StatusFailed, CellCount: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadRecord_Classification(t *testing.T) {
	r := UploadRecord{AnalysisResult: &AnalysisResult{Classification: strPtr("malignant")}}
	assert.Equal(t, valueobjects.ClassificationMalignant, r.Classification())

	none := UploadRecord{}
	assert.Equal(t, valueobjects.ClassificationUnknown, none.Classification())
}

func TestUploadRecord_ConfidencePercent(t *testing.T) {
	for score, want := range map[float64]int{0: 0, 0.7: 70, 0.834: 83, 0.996: 100} {
		r := UploadRecord{ConfidenceScore: score}
		assert.Equal(t, want, r.ConfidencePercent(), "score %v", score)
	}
}

func TestAnalysisResult_JSONKeepsUnknownKeys(t *testing.T) {
	in := `{"cell_count":75,"cell_types":["Platelets"],"confidence_score":0.9,"model":"v0","classification":"benign"}`

	var a AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(in), &a))
	assert.Equal(t, 75, a.CellCount)
	assert.Equal(t, valueobjects.ClassificationBenign, a.Verdict())
	assert.Contains(t, a.Extra, "model")

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestThreadView_Markers(t *testing.T) {
	v := NewThreadView(DiscussionThread{ID: "t1", UserID: "author"}, nil)

	assert.False(t, v.MarkedBy(valueobjects.MarkerFavorite, "u1"))
	v.SetMarked(valueobjects.MarkerFavorite, "u1", true)
	v.SetMarked(valueobjects.MarkerFavorite, "u1", true)
	assert.True(t, v.MarkedBy(valueobjects.MarkerFavorite, "u1"))
	assert.Len(t, v.FavoritedBy, 1)
	assert.False(t, v.MarkedBy(valueobjects.MarkerFocus, "u1"))

	v.SetMarked(valueobjects.MarkerFavorite, "u1", false)
	assert.Empty(t, v.FavoritedBy)
}

func TestDiscussionThread_IsOwnedBy(t *testing.T) {
	th := DiscussionThread{UserID: "u1"}
	assert.True(t, th.IsOwnedBy("u1"))
	assert.False(t, th.IsOwnedBy("u2"))
	assert.False(t, th.IsOwnedBy(""))
}

func TestNewDiscussionThread_RequiresUser(t *testing.T) {
	content, err := valueobjects.NewPostContent("t", "c")
	require.NoError(t, err)

	_, err = NewDiscussionThread("", content, nil)
	assert.True(t, pkgerrors.IsUnauthorized(err))
}

func TestProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Dr. Ada", (&Profile{FullName: strPtr("Dr. Ada"), Email: "a@x"}).DisplayName())
	assert.Equal(t, "a@x", (&Profile{FullName: strPtr(""), Email: "a@x"}).DisplayName())
	var p *Profile
	assert.Equal(t, "Anonymous", p.DisplayName())
}
