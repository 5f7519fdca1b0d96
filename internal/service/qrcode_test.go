package service

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderQRDataURL(t *testing.T) {
	url, err := RenderQRDataURL("2@pairing-token,abc,def")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(url, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, qrImageSize, img.Bounds().Dx())
}

func TestRenderQRDataURL_Empty(t *testing.T) {
	_, err := RenderQRDataURL("")
	assert.Error(t, err)
}
