package cups

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFromIPP(t *testing.T) {
	cases := map[int]JobState{
		3:  StatePending,
		4:  StateHeld,
		5:  StateProcessing,
		6:  StateStopped,
		7:  StateCanceled,
		8:  StateAborted,
		9:  StateCompleted,
		0:  StateUnknown,
		42: StateUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, StateFromIPP(code), "code %d", code)
	}
}

func TestJobState_Classification(t *testing.T) {
	// Poll-again states.
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateProcessing.Terminal())
	assert.False(t, StateUnknown.Terminal())

	// Terminal states.
	for _, s := range []JobState{StateHeld, StateStopped, StateCanceled, StateAborted, StateCompleted} {
		assert.True(t, s.Terminal(), "state %s", s)
	}

	assert.True(t, StateCompleted.Succeeded())
	assert.False(t, StateAborted.Succeeded())
}

func TestParsePageSize_Points(t *testing.T) {
	w, h, err := ParsePageSize("w252h144")
	require.NoError(t, err)
	assert.Equal(t, 252.0, w)
	assert.Equal(t, 144.0, h)
}

func TestParsePageSize_CustomInches(t *testing.T) {
	w, h, err := ParsePageSize("Custom.3.5x1.5in")
	require.NoError(t, err)
	assert.InDelta(t, 252.0, w, 0.01)
	assert.InDelta(t, 108.0, h, 0.01)
}

func TestParsePageSize_CustomMillimeters(t *testing.T) {
	w, h, err := ParsePageSize("Custom.100x50mm")
	require.NoError(t, err)
	assert.InDelta(t, 100*72/25.4, w, 0.01)
	assert.InDelta(t, 50*72/25.4, h, 0.01)
}

func TestParsePageSize_CustomCentimeters(t *testing.T) {
	w, h, err := ParsePageSize("Custom.10x5cm")
	require.NoError(t, err)
	assert.InDelta(t, 10*72/2.54, w, 0.01)
	assert.InDelta(t, 5*72/2.54, h, 0.01)
}

func TestParsePageSize_CustomBarePoints(t *testing.T) {
	w, h, err := ParsePageSize("Custom.252x144")
	require.NoError(t, err)
	assert.Equal(t, 252.0, w)
	assert.Equal(t, 144.0, h)
}

func TestParsePageSize_Garbage(t *testing.T) {
	_, _, err := ParsePageSize("A4")
	assert.Error(t, err)
}

func writePPD(t *testing.T, dir, printer, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, printer+".ppd"), []byte(content), 0o644))
}

func TestMediaSize_FromPPD(t *testing.T) {
	dir := t.TempDir()
	writePPD(t, dir, "Label_Printer", "*PPD-Adobe: \"4.3\"\n*DefaultPageSize: w252h144\n")

	c := &ExecClient{PPDDir: dir}
	w, h, err := c.MediaSize(context.Background(), "Label_Printer", 300)
	require.NoError(t, err)

	// 252pt x 144pt at 300dpi.
	assert.Equal(t, 1050, w)
	assert.Equal(t, 600, h)
}

func TestMediaSize_MissingPPD(t *testing.T) {
	c := &ExecClient{PPDDir: t.TempDir()}
	_, _, err := c.MediaSize(context.Background(), "Ghost", 300)
	assert.Error(t, err)
}

func TestMediaSize_NoDefaultPageSize(t *testing.T) {
	dir := t.TempDir()
	writePPD(t, dir, "Label_Printer", "*PPD-Adobe: \"4.3\"\n*ModelName: \"X\"\n")

	c := &ExecClient{PPDDir: dir}
	_, _, err := c.MediaSize(context.Background(), "Label_Printer", 300)
	assert.Error(t, err)
}
