package discovery

// BrowserInfo describes one Chromium-family browser that can run the audit.
type BrowserInfo struct {
	Name     string   // display name
	Binaries []string // executable names looked up in PATH
	Paths    map[string][]string
}

// EnvVars override discovery when set, in order of precedence.
var EnvVars = []string{"A11YSPECTRE_BROWSER_PATH", "CHROME_PATH"}

// Registry lists supported browsers in preference order.
var Registry = []BrowserInfo{
	{
		Name:     "chromium",
		Binaries: []string{"chromium", "chromium-browser"},
		Paths: map[string][]string{
			"darwin": {"/Applications/Chromium.app/Contents/MacOS/Chromium"},
			"linux":  {"/usr/bin/chromium", "/usr/bin/chromium-browser", "/snap/bin/chromium"},
		},
	},
	{
		Name:     "google-chrome",
		Binaries: []string{"google-chrome", "google-chrome-stable", "chrome"},
		Paths: map[string][]string{
			"darwin":  {"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			"linux":   {"/opt/google/chrome/chrome"},
			"windows": {`C:\Program Files\Google\Chrome\Application\chrome.exe`, `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`},
		},
	},
	{
		Name:     "headless-shell",
		Binaries: []string{"headless-shell", "headless_shell"},
		Paths: map[string][]string{
			"linux": {"/headless-shell/headless-shell"},
		},
	},
	{
		Name:     "microsoft-edge",
		Binaries: []string{"microsoft-edge", "msedge"},
		Paths: map[string][]string{
			"darwin":  {"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
			"windows": {`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`},
		},
	},
}
