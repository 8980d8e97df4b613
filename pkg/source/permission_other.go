//go:build !darwin

package source

// ScreenCaptureAllowed 非 macOS 系统不需要额外权限
func ScreenCaptureAllowed() bool {
	return true
}

// OpenScreenCaptureSettings 非 macOS 系统为空实现
func OpenScreenCaptureSettings() {}

// ScreenCaptureInstructions 非 macOS 系统无需说明
func ScreenCaptureInstructions() string {
	return ""
}
