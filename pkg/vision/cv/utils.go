package cv

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gocv.io/x/gocv"
)

// ReadImage 读取图像文件
func ReadImage(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadColor)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// ReadImageGray 读取灰度图像
func ReadImageGray(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadGrayScale)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// WriteImage 保存图像文件
func WriteImage(filename string, img gocv.Mat) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if ok := gocv.IMWrite(filename, img); !ok {
		return fmt.Errorf("保存图像失败: %s", filename)
	}
	return nil
}

// DecodeImage 解码内存中的图像为 BGR Mat
// 先用 OpenCV 解码，失败时回退到 Go 的 image 解码器（bmp/tiff/webp 等）
func DecodeImage(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: 空数据", ErrInvalidInput)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	mat.Close()

	img, _, derr := image.Decode(bytes.NewReader(data))
	if derr != nil {
		return gocv.NewMat(), fmt.Errorf("%w: 无法解码图像: %v", ErrInvalidInput, derr)
	}
	return ImageToMat(img)
}

// EncodePNG 将 Mat 编码为 PNG 字节
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("PNG 编码失败: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// ToGray 转换为灰度图
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// CropRegion 按矩形裁剪图像并返回独立副本
// 区域必须完全落在图像内，否则返回 *RegionError
func CropRegion(img gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: 空图像", ErrInvalidInput)
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	if rect.Empty() || !rect.In(bounds) {
		return gocv.NewMat(), &RegionError{Region: rect, Bounds: bounds}
	}

	region := img.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

// Binarize 灰度化后做反向二值化：暗于阈值的墨迹为 255，纸面为 0
func Binarize(src gocv.Mat, threshold float64) gocv.Mat {
	gray := ToGray(src)
	defer gray.Close()

	dst := gocv.NewMat()
	gocv.Threshold(gray, &dst, float32(threshold), 255, gocv.ThresholdBinaryInv)
	return dst
}

// ResizeImage 调整图像大小
func ResizeImage(img gocv.Mat, width, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(img, &dst, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)
	return dst
}

// Rotate180 旋转 180 度
func Rotate180(img gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Rotate(img, &dst, gocv.Rotate180Clockwise)
	return dst
}

// ImageToMat 将 image.Image 转换为 BGR gocv.Mat
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("图像转换失败: %w", err)
	}
	defer mat.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(mat, &dst, gocv.ColorRGBToBGR)
	return dst, nil
}

// LoadImageInput 加载图像输入
// 支持 string (文件路径)、[]byte (编码后的图像)、image.Image、gocv.Mat
func LoadImageInput(input interface{}) (gocv.Mat, error) {
	switch v := input.(type) {
	case string:
		return ReadImage(v)
	case []byte:
		return DecodeImage(v)
	case image.Image:
		return ImageToMat(v)
	case gocv.Mat:
		return v.Clone(), nil
	case *gocv.Mat:
		return v.Clone(), nil
	default:
		return gocv.NewMat(), fmt.Errorf("不支持的图像输入类型: %T", input)
	}
}
