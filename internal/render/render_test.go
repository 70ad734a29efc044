package render

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLabel() Label {
	return Label{
		PackageID:          "PKG-2024-0001",
		InmateID:           "A123456",
		InmateName:         "John Doe",
		InmateJurisdiction: "King County",
		UnitName:           "Block C",
		UnitShippingMethod: "Ground",
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validLabel().Validate(0))
}

func TestValidate_MissingField(t *testing.T) {
	l := validLabel()
	l.UnitName = ""

	err := l.Validate(0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "unit_name", vErr.Field)
	assert.Equal(t, "missing", vErr.Reason)
}

func TestValidate_FieldTooLong(t *testing.T) {
	l := validLabel()
	l.InmateName = strings.Repeat("x", 10001)

	err := l.Validate(10000)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "inmate_name", vErr.Field)
}

func TestValidate_LengthLimitDisabled(t *testing.T) {
	l := validLabel()
	l.InmateName = strings.Repeat("x", 10001)
	assert.NoError(t, l.Validate(0))
}

func TestRequiredKeys_MatchLabelFields(t *testing.T) {
	keys := RequiredKeys()
	assert.Len(t, keys, 6)
	for _, key := range keys {
		_, ok := validLabel().fields()[key]
		assert.True(t, ok, "key %q missing from fields map", key)
	}
}

func TestRender(t *testing.T) {
	img, err := Render(validLabel(), 1050, 600)
	require.NoError(t, err)
	assert.Equal(t, 1050, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	// Barcode bars guarantee some black ink on the canvas.
	black := 0
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.GrayAt(x, y).Y < 128 {
				black++
			}
		}
	}
	assert.Greater(t, black, 0)
}

func TestRender_InvalidLabel(t *testing.T) {
	l := validLabel()
	l.PackageID = ""

	_, err := Render(l, 1050, 600)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestRender_UnencodableBarcode(t *testing.T) {
	l := validLabel()
	// Code128 cannot encode characters outside the Latin-1 range.
	l.PackageID = "PKG-日本"

	_, err := Render(l, 1050, 600)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "barcode", vErr.Field)
}

func TestRotate90(t *testing.T) {
	src, err := Render(validLabel(), 400, 200)
	require.NoError(t, err)

	dst := Rotate90(src)
	assert.Equal(t, 200, dst.Bounds().Dx())
	assert.Equal(t, 400, dst.Bounds().Dy())
}

func TestRotate90_MapsPixelsCounterclockwise(t *testing.T) {
	src, err := Render(validLabel(), 300, 150)
	require.NoError(t, err)
	src.SetGray(299, 0, color.Gray{Y: 7})

	dst := Rotate90(src)
	// The top-right corner becomes the top-left corner.
	assert.Equal(t, uint8(7), dst.GrayAt(0, 0).Y)
}
