//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>

static void nudgeUseAccessoryPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}

static int nudgeIsActive(void) {
    return [NSApp isActive] ? 1 : 0;
}

static void nudgeBringToFront(void) {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"
import "log"

// SetActivationPolicy hides the dock icon so nudge lives in the menu bar.
func SetActivationPolicy() {
	log.Println("[PLATFORM] Using accessory activation policy")
	C.nudgeUseAccessoryPolicy()
}

// IsAppActive reports whether nudge is the frontmost application.
func IsAppActive() bool {
	return C.nudgeIsActive() == 1
}

// ActivateApp brings nudge in front of other applications, used while an
// alert is ringing.
func ActivateApp() {
	C.nudgeBringToFront()
}
