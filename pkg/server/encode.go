package server

import (
	"encoding/base64"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// MatToBase64 将 BGR 图像编码为 PNG data URL
func MatToBase64(m gocv.Mat) (string, error) {
	if m.Empty() {
		return "", fmt.Errorf("%w: 图像为空", cv.ErrInvalidInput)
	}
	data, err := cv.EncodePNG(m)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
