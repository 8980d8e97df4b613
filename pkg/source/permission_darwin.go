//go:build darwin

package source

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

int screenCaptureAllowed() {
    if (@available(macOS 10.15, *)) {
        CFArrayRef windowList = CGWindowListCopyWindowInfo(
            kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
            kCGNullWindowID
        );
        if (windowList == NULL) {
            return 0;
        }

        CFIndex count = CFArrayGetCount(windowList);
        int hasNames = 0;
        for (CFIndex i = 0; i < count; i++) {
            CFDictionaryRef window = (CFDictionaryRef)CFArrayGetValueAtIndex(windowList, i);
            CFStringRef name = (CFStringRef)CFDictionaryGetValue(window, kCGWindowName);
            if (name != NULL && CFStringGetLength(name) > 0) {
                hasNames = 1;
                break;
            }
        }
        CFRelease(windowList);
        return (count == 0 || hasNames) ? 1 : 0;
    }
    return 1;
}

void openScreenCapturePreferences() {
    NSString *urlString = @"x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture";
    [[NSWorkspace sharedWorkspace] openURL:[NSURL URLWithString:urlString]];
}
*/
import "C"

// ScreenCaptureAllowed 是否已授予屏幕录制权限（不触发弹窗）
// 窗口列表拿不到任何窗口名时视为未授权
func ScreenCaptureAllowed() bool {
	return C.screenCaptureAllowed() == 1
}

// OpenScreenCaptureSettings 打开屏幕录制设置页面
func OpenScreenCaptureSettings() {
	C.openScreenCapturePreferences()
}

// ScreenCaptureInstructions 未授权时的操作说明
func ScreenCaptureInstructions() string {
	return "屏幕来源需要屏幕录制权限:\n" +
		"  系统设置 > 隐私与安全性 > 屏幕录制\n" +
		"授权后需要重启应用才能生效。"
}
