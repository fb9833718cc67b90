package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ImageService handles profile photo processing and signature validation
type ImageService struct {
	uploadDir string
}

func NewImageService(uploadDir string) *ImageService {
	if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
		_ = os.MkdirAll(uploadDir, 0755)
	}
	return &ImageService{
		uploadDir: uploadDir,
	}
}

// ProcessAndSaveProfilePicture saves the original image and a 128x128
// thumbnail, returning relative paths suitable for the users table.
func (s *ImageService) ProcessAndSaveProfilePicture(file multipart.File, header *multipart.FileHeader) (originalPath, thumbnailPath string, err error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", "", fmt.Errorf("unsupported image format (only JPG/PNG)")
	}

	filename := uuid.New().String()
	originalFilename := filename + ext
	thumbFilename := filename + "_thumb" + ext

	originalRelPath := "/uploads/" + originalFilename
	thumbRelPath := "/uploads/" + thumbFilename

	img, _, err := image.Decode(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image: %w", err)
	}

	// The original is copied byte for byte; decoding above is only
	// validation, re-encoding would lose quality.
	if _, err := file.Seek(0, 0); err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}

	outOriginalPath := filepath.Join(s.uploadDir, originalFilename)
	outOriginal, err := os.Create(outOriginalPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %w", err)
	}
	defer outOriginal.Close()

	if _, err := io.Copy(outOriginal, file); err != nil {
		return "", "", fmt.Errorf("failed to save original image: %w", err)
	}

	thumbImg := imaging.Fill(img, 128, 128, imaging.Center, imaging.Lanczos)

	outThumbPath := filepath.Join(s.uploadDir, thumbFilename)
	outThumb, err := os.Create(outThumbPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create thumbnail: %w", err)
	}
	defer outThumb.Close()

	if ext == ".png" {
		err = png.Encode(outThumb, thumbImg)
	} else {
		err = jpeg.Encode(outThumb, thumbImg, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	cacheBust := fmt.Sprintf("?t=%d", time.Now().Unix())
	return originalRelPath + cacheBust, thumbRelPath + cacheBust, nil
}

// ValidateSignature checks that a signature payload is a decodable
// PNG or JPEG data URI. Signatures arrive from a canvas widget so a
// broken payload means a client bug, not user error.
func (s *ImageService) ValidateSignature(dataURI string) error {
	const prefixPNG = "data:image/png;base64,"
	const prefixJPEG = "data:image/jpeg;base64,"

	var encoded string
	switch {
	case strings.HasPrefix(dataURI, prefixPNG):
		encoded = strings.TrimPrefix(dataURI, prefixPNG)
	case strings.HasPrefix(dataURI, prefixJPEG):
		encoded = strings.TrimPrefix(dataURI, prefixJPEG)
	default:
		return fmt.Errorf("signature must be a PNG or JPEG data URI")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("signature payload is not valid base64: %w", err)
	}

	if _, _, err := image.Decode(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("signature payload is not a valid image: %w", err)
	}

	return nil
}
