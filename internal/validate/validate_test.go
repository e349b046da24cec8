package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Check(t *testing.T) {
	g := NewGate()

	tests := []struct {
		name    string
		file    FileInfo
		wantErr error
	}{
		{
			name: "jpeg under limit",
			file: FileInfo{Filename: "photo.jpg", ContentType: "image/jpeg", Size: 2 << 20},
		},
		{
			name: "png at the limit",
			file: FileInfo{Filename: "photo.png", ContentType: "image/png", Size: MaxFileSize},
		},
		{
			name: "webp accepted",
			file: FileInfo{Filename: "photo.webp", ContentType: "image/webp", Size: 1024},
		},
		{
			name: "content type with parameters",
			file: FileInfo{Filename: "photo.jpg", ContentType: "image/jpeg; charset=binary", Size: 1024},
		},
		{
			name:    "gif rejected regardless of size",
			file:    FileInfo{Filename: "anim.gif", ContentType: "image/gif", Size: 10},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "pdf rejected",
			file:    FileInfo{Filename: "doc.pdf", ContentType: "application/pdf", Size: 1024},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "empty content type rejected",
			file:    FileInfo{Filename: "mystery", ContentType: "", Size: 1024},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "png over limit rejected",
			file:    FileInfo{Filename: "big.png", ContentType: "image/png", Size: 12 << 20},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "one byte over the limit",
			file:    FileInfo{Filename: "edge.jpg", ContentType: "image/jpeg", Size: MaxFileSize + 1},
			wantErr: ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check(tt.file)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.file.Filename, verr.Filename)
		})
	}
}

func TestGate_CheckAll(t *testing.T) {
	g := NewGate()

	valid := FileInfo{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1024}
	tooBig := FileInfo{Filename: "b.png", ContentType: "image/png", Size: 12 << 20}
	badType := FileInfo{Filename: "c.bmp", ContentType: "image/bmp", Size: 1024}

	t.Run("all valid", func(t *testing.T) {
		accepted, berr := g.CheckAll([]FileInfo{valid, valid, valid})
		assert.Nil(t, berr)
		assert.Equal(t, []int{0, 1, 2}, accepted)
	})

	t.Run("valid files proceed past a rejection", func(t *testing.T) {
		accepted, berr := g.CheckAll([]FileInfo{valid, tooBig})
		require.NotNil(t, berr)
		assert.Equal(t, []int{0}, accepted)
		assert.Contains(t, berr.Error(), "rejected 1 of 2 files")
		assert.Contains(t, berr.Error(), "b.png")
	})

	t.Run("accepted order is preserved around rejections", func(t *testing.T) {
		accepted, berr := g.CheckAll([]FileInfo{tooBig, valid, badType, valid})
		require.NotNil(t, berr)
		assert.Equal(t, []int{1, 3}, accepted)
	})

	t.Run("aggregate error names every rejected file", func(t *testing.T) {
		accepted, berr := g.CheckAll([]FileInfo{tooBig, badType})
		require.NotNil(t, berr)
		assert.Empty(t, accepted)
		assert.Contains(t, berr.Error(), "rejected 2 of 2 files")
		assert.Contains(t, berr.Error(), "b.png")
		assert.Contains(t, berr.Error(), "c.bmp")
	})

	t.Run("empty batch is fine", func(t *testing.T) {
		accepted, berr := g.CheckAll(nil)
		assert.Nil(t, berr)
		assert.Empty(t, accepted)
	})
}
