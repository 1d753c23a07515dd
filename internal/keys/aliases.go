package keys

import "github.com/holoplot/go-evdev"

// aliases maps lowercase human key names to key codes. Several names may map
// to the same code.
var aliases = map[string]Code{
	// left-side modifiers
	"ctrl": evdev.KEY_LEFTCTRL, "control": evdev.KEY_LEFTCTRL, "lctrl": evdev.KEY_LEFTCTRL,
	"alt": evdev.KEY_LEFTALT, "lalt": evdev.KEY_LEFTALT,
	"shift": evdev.KEY_LEFTSHIFT, "lshift": evdev.KEY_LEFTSHIFT,
	"super": evdev.KEY_LEFTMETA, "meta": evdev.KEY_LEFTMETA, "lsuper": evdev.KEY_LEFTMETA,
	"win": evdev.KEY_LEFTMETA, "windows": evdev.KEY_LEFTMETA, "cmd": evdev.KEY_LEFTMETA,

	// right-side modifiers
	"rctrl": evdev.KEY_RIGHTCTRL, "rightctrl": evdev.KEY_RIGHTCTRL,
	"ralt": evdev.KEY_RIGHTALT, "rightalt": evdev.KEY_RIGHTALT,
	"rshift": evdev.KEY_RIGHTSHIFT, "rightshift": evdev.KEY_RIGHTSHIFT,
	"rsuper": evdev.KEY_RIGHTMETA, "rightsuper": evdev.KEY_RIGHTMETA, "rmeta": evdev.KEY_RIGHTMETA,

	// special keys
	"enter": evdev.KEY_ENTER, "return": evdev.KEY_ENTER,
	"backspace": evdev.KEY_BACKSPACE, "bksp": evdev.KEY_BACKSPACE,
	"tab":  evdev.KEY_TAB,
	"caps": evdev.KEY_CAPSLOCK, "capslock": evdev.KEY_CAPSLOCK,
	"esc": evdev.KEY_ESC, "escape": evdev.KEY_ESC,
	"space": evdev.KEY_SPACE, "spacebar": evdev.KEY_SPACE,
	"delete": evdev.KEY_DELETE, "del": evdev.KEY_DELETE,
	"insert": evdev.KEY_INSERT, "ins": evdev.KEY_INSERT,
	"home":   evdev.KEY_HOME,
	"end":    evdev.KEY_END,
	"pageup": evdev.KEY_PAGEUP, "pgup": evdev.KEY_PAGEUP,
	"pagedown": evdev.KEY_PAGEDOWN, "pgdn": evdev.KEY_PAGEDOWN, "pgdown": evdev.KEY_PAGEDOWN,

	// arrows
	"up": evdev.KEY_UP, "uparrow": evdev.KEY_UP,
	"down": evdev.KEY_DOWN, "downarrow": evdev.KEY_DOWN,
	"left": evdev.KEY_LEFT, "leftarrow": evdev.KEY_LEFT,
	"right": evdev.KEY_RIGHT, "rightarrow": evdev.KEY_RIGHT,

	// locks
	"numlock":    evdev.KEY_NUMLOCK,
	"scrolllock": evdev.KEY_SCROLLLOCK, "scroll": evdev.KEY_SCROLLLOCK,

	// function keys
	"f1": evdev.KEY_F1, "f2": evdev.KEY_F2, "f3": evdev.KEY_F3, "f4": evdev.KEY_F4,
	"f5": evdev.KEY_F5, "f6": evdev.KEY_F6, "f7": evdev.KEY_F7, "f8": evdev.KEY_F8,
	"f9": evdev.KEY_F9, "f10": evdev.KEY_F10, "f11": evdev.KEY_F11, "f12": evdev.KEY_F12,
	"f13": evdev.KEY_F13, "f14": evdev.KEY_F14, "f15": evdev.KEY_F15, "f16": evdev.KEY_F16,
	"f17": evdev.KEY_F17, "f18": evdev.KEY_F18, "f19": evdev.KEY_F19, "f20": evdev.KEY_F20,
	"f21": evdev.KEY_F21, "f22": evdev.KEY_F22, "f23": evdev.KEY_F23, "f24": evdev.KEY_F24,

	// keypad
	"kp0": evdev.KEY_KP0, "kp1": evdev.KEY_KP1, "kp2": evdev.KEY_KP2, "kp3": evdev.KEY_KP3,
	"kp4": evdev.KEY_KP4, "kp5": evdev.KEY_KP5, "kp6": evdev.KEY_KP6, "kp7": evdev.KEY_KP7,
	"kp8": evdev.KEY_KP8, "kp9": evdev.KEY_KP9,
	"kpenter": evdev.KEY_KPENTER, "kpplus": evdev.KEY_KPPLUS, "kpminus": evdev.KEY_KPMINUS,
	"kpmultiply": evdev.KEY_KPASTERISK, "kpdivide": evdev.KEY_KPSLASH,
	"kpdot": evdev.KEY_KPDOT, "kpperiod": evdev.KEY_KPDOT,

	// media
	"mute": evdev.KEY_MUTE, "volumemute": evdev.KEY_MUTE,
	"volumeup": evdev.KEY_VOLUMEUP, "volup": evdev.KEY_VOLUMEUP,
	"volumedown": evdev.KEY_VOLUMEDOWN, "voldown": evdev.KEY_VOLUMEDOWN,
	"play": evdev.KEY_PLAYPAUSE, "playpause": evdev.KEY_PLAYPAUSE,
	"stop": evdev.KEY_STOPCD, "mediastop": evdev.KEY_STOPCD,
	"nextsong": evdev.KEY_NEXTSONG, "next": evdev.KEY_NEXTSONG,
	"previoussong": evdev.KEY_PREVIOUSSONG, "prev": evdev.KEY_PREVIOUSSONG,

	// browser
	"browser":        evdev.KEY_WWW,
	"browserback":    evdev.KEY_BACK,
	"browserforward": evdev.KEY_FORWARD,
	"refresh":        evdev.KEY_REFRESH,
	"browsersearch":  evdev.KEY_SEARCH,
	"favorites":      evdev.KEY_BOOKMARKS,

	// system
	"menu":  evdev.KEY_MENU,
	"print": evdev.KEY_PRINT, "printscreen": evdev.KEY_SYSRQ, "prtsc": evdev.KEY_SYSRQ,
	"pause": evdev.KEY_PAUSE, "break": evdev.KEY_PAUSE,
	"sysrq": evdev.KEY_SYSRQ,

	// punctuation
	".": evdev.KEY_DOT, "dot": evdev.KEY_DOT, "period": evdev.KEY_DOT,
	",": evdev.KEY_COMMA, "comma": evdev.KEY_COMMA,
	"/": evdev.KEY_SLASH, "slash": evdev.KEY_SLASH,
	"\\": evdev.KEY_BACKSLASH, "backslash": evdev.KEY_BACKSLASH,
	";": evdev.KEY_SEMICOLON, "semicolon": evdev.KEY_SEMICOLON,
	"'": evdev.KEY_APOSTROPHE, "apostrophe": evdev.KEY_APOSTROPHE, "quote": evdev.KEY_APOSTROPHE,
	"[": evdev.KEY_LEFTBRACE, "leftbrace": evdev.KEY_LEFTBRACE, "lbrace": evdev.KEY_LEFTBRACE,
	"]": evdev.KEY_RIGHTBRACE, "rightbrace": evdev.KEY_RIGHTBRACE, "rbrace": evdev.KEY_RIGHTBRACE,
	"-": evdev.KEY_MINUS, "minus": evdev.KEY_MINUS, "dash": evdev.KEY_MINUS,
	"=": evdev.KEY_EQUAL, "equal": evdev.KEY_EQUAL, "equals": evdev.KEY_EQUAL,
	"`": evdev.KEY_GRAVE, "grave": evdev.KEY_GRAVE, "backtick": evdev.KEY_GRAVE,

	// top-row digits
	"0": evdev.KEY_0, "1": evdev.KEY_1, "2": evdev.KEY_2, "3": evdev.KEY_3, "4": evdev.KEY_4,
	"5": evdev.KEY_5, "6": evdev.KEY_6, "7": evdev.KEY_7, "8": evdev.KEY_8, "9": evdev.KEY_9,

	// letters
	"a": evdev.KEY_A, "b": evdev.KEY_B, "c": evdev.KEY_C, "d": evdev.KEY_D, "e": evdev.KEY_E,
	"f": evdev.KEY_F, "g": evdev.KEY_G, "h": evdev.KEY_H, "i": evdev.KEY_I, "j": evdev.KEY_J,
	"k": evdev.KEY_K, "l": evdev.KEY_L, "m": evdev.KEY_M, "n": evdev.KEY_N, "o": evdev.KEY_O,
	"p": evdev.KEY_P, "q": evdev.KEY_Q, "r": evdev.KEY_R, "s": evdev.KEY_S, "t": evdev.KEY_T,
	"u": evdev.KEY_U, "v": evdev.KEY_V, "w": evdev.KEY_W, "x": evdev.KEY_X, "y": evdev.KEY_Y,
	"z": evdev.KEY_Z,
}

// modifiers never stay suppressed; their releases always reach the session.
var modifiers = NewSet(
	evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTCTRL,
	evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT,
	evdev.KEY_LEFTSHIFT, evdev.KEY_RIGHTSHIFT,
	evdev.KEY_LEFTMETA, evdev.KEY_RIGHTMETA,
)

// displayNames pins a readable name for codes the kernel tables list under
// more than one name (KEY_MUTE is also KEY_MIN_INTERESTING).
var displayNames = map[Code]string{
	evdev.KEY_MUTE:      "MUTE",
	evdev.KEY_SYSRQ:     "SYSRQ",
	evdev.KEY_PLAYPAUSE: "PLAYPAUSE",
	evdev.KEY_BOOKMARKS: "BOOKMARKS",
}
