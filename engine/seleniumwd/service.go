package seleniumwd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// startupTimeout bounds how long a Service waits for the driver process to
// start answering status requests.
const startupTimeout = 30 * time.Second

// ServiceOption configures a Service before its process starts.
type ServiceOption func(*Service) error

// Display sets the DISPLAY environment variable for the driver process, along
// with the path to the Xauthority file holding credentials for that X server.
func Display(d, xauthPath string) ServiceOption {
	return func(s *Service) error {
		if s.display != "" {
			return fmt.Errorf("service display already set: %v", s.display)
		}
		if s.xauthPath != "" {
			return fmt.Errorf("service xauth path already set: %v", s.xauthPath)
		}
		if !isDisplay(d) {
			return fmt.Errorf("supplied display %q must be of the format 'x' or 'x.y' where x and y are integers", d)
		}
		s.display = d
		s.xauthPath = xauthPath
		return nil
	}
}

// isDisplay validates that disp is in the format "x" or "x.y", where x and y
// are both integers.
func isDisplay(disp string) bool {
	ds := strings.Split(disp, ".")
	if len(ds) > 2 {
		return false
	}
	for _, d := range ds {
		if _, err := strconv.Atoi(d); err != nil {
			return false
		}
	}
	return true
}

// Output directs the driver process's stdout and stderr to w.
func Output(w io.Writer) ServiceOption {
	return func(s *Service) error {
		s.output = w
		return nil
	}
}

// GeckoDriver sets the path to the geckodriver binary for a Selenium Server.
// Selenium Server does not accept the geckodriver path at runtime, so this
// option only applies to NewSeleniumService.
func GeckoDriver(path string) ServiceOption {
	return func(s *Service) error {
		s.geckoDriverPath = path
		return nil
	}
}

// ChromeDriver sets the path to the chromedriver binary for a Selenium
// Server. This option only applies to NewSeleniumService.
func ChromeDriver(path string) ServiceOption {
	return func(s *Service) error {
		s.chromeDriverPath = path
		return nil
	}
}

// JavaPath sets the path to the JRE used to run a Selenium Server.
func JavaPath(path string) ServiceOption {
	return func(s *Service) error {
		s.javaPath = path
		return nil
	}
}

// StartFrameBuffer starts an X virtual frame buffer before the driver process
// and points the driver's display at it. The frame buffer is terminated when
// the service stops.
//
// This is equivalent to calling StartFrameBufferWithOptions with a zero
// FrameBufferOptions.
func StartFrameBuffer() ServiceOption {
	return StartFrameBufferWithOptions(FrameBufferOptions{})
}

// FrameBufferOptions describes how to start a frame buffer.
type FrameBufferOptions struct {
	// ScreenSize is the frame buffer screen size, of the form
	// "{width}x{height}[x{depth}]", e.g. "1024x768x24".
	ScreenSize string
}

// StartFrameBufferWithOptions starts an X virtual frame buffer with the given
// options before the driver process starts.
func StartFrameBufferWithOptions(options FrameBufferOptions) ServiceOption {
	return func(s *Service) error {
		if s.display != "" {
			return fmt.Errorf("service display already set: %v", s.display)
		}
		if s.xauthPath != "" {
			return fmt.Errorf("service xauth path already set: %v", s.xauthPath)
		}
		if s.xvfb != nil {
			return errors.New("service frame buffer already running")
		}
		fb, err := NewFrameBufferWithOptions(options)
		if err != nil {
			return fmt.Errorf("start frame buffer: %w", err)
		}
		s.xvfb = fb
		return Display(fb.Display, fb.AuthPath)(s)
	}
}

// Service controls a locally-running WebDriver subprocess: a chromedriver, a
// geckodriver, or a Selenium Server.
type Service struct {
	port            int
	addr            string
	cmd             *exec.Cmd
	shutdownURLPath string

	display, xauthPath string
	xvfb               *FrameBuffer

	geckoDriverPath  string
	chromeDriverPath string
	javaPath         string

	output io.Writer
}

// Addr returns the base URL the driver serves the WebDriver protocol on,
// suitable for Open.
func (s *Service) Addr() string {
	return s.addr
}

// FrameBuffer returns the frame buffer if the service started one, else nil.
func (s *Service) FrameBuffer() *FrameBuffer {
	return s.xvfb
}

// NewChromeDriverService starts a chromedriver instance in the background.
func NewChromeDriverService(path string, port int, opts ...ServiceOption) (*Service, error) {
	cmd := exec.Command(path, "--port="+strconv.Itoa(port), "--url-base=wd/hub")
	s, err := newService(cmd, "/wd/hub", port, opts...)
	if err != nil {
		return nil, err
	}
	s.shutdownURLPath = "/shutdown"
	if err := s.start(port); err != nil {
		return nil, err
	}
	return s, nil
}

// NewGeckoDriverService starts a geckodriver instance in the background.
func NewGeckoDriverService(path string, port int, opts ...ServiceOption) (*Service, error) {
	cmd := exec.Command(path, "--port", strconv.Itoa(port))
	s, err := newService(cmd, "", port, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.start(port); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSeleniumService starts a Selenium Server instance in the background.
func NewSeleniumService(jarPath string, port int, opts ...ServiceOption) (*Service, error) {
	s, err := newService(exec.Command("java"), "/wd/hub", port, opts...)
	if err != nil {
		return nil, err
	}
	if s.javaPath != "" {
		s.cmd.Path = s.javaPath
	}
	if s.geckoDriverPath != "" {
		s.cmd.Args = append([]string{"java", "-Dwebdriver.gecko.driver=" + s.geckoDriverPath}, s.cmd.Args[1:]...)
	}
	if s.chromeDriverPath != "" {
		s.cmd.Args = append([]string{"java", "-Dwebdriver.chrome.driver=" + s.chromeDriverPath}, s.cmd.Args[1:]...)
	}
	s.cmd.Args = append(s.cmd.Args, "-cp", jarPath)
	s.cmd.Args = append(s.cmd.Args, "org.openqa.grid.selenium.GridLauncherV3", "-port", strconv.Itoa(port))

	if err := s.start(port); err != nil {
		return nil, err
	}
	return s, nil
}

func newService(cmd *exec.Cmd, urlPrefix string, port int, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		port: port,
		addr: fmt.Sprintf("http://localhost:%d%s", port, urlPrefix),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	cmd.Stdout = s.output
	cmd.Stderr = s.output
	cmd.Env = os.Environ()
	if s.display != "" {
		cmd.Env = append(cmd.Env, "DISPLAY=:"+s.display)
	}
	if s.xauthPath != "" {
		cmd.Env = append(cmd.Env, "XAUTHORITY="+s.xauthPath)
	}
	s.cmd = cmd
	return s, nil
}

func (s *Service) start(port int) error {
	if err := s.cmd.Start(); err != nil {
		return err
	}
	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		time.Sleep(time.Second)
		resp, err := http.Get(s.addr + "/status")
		if err != nil {
			continue
		}
		resp.Body.Close()
		switch resp.StatusCode {
		// Selenium <3 answered Forbidden or BadRequest here; chromedriver,
		// geckodriver and Selenium 3 answer OK.
		case http.StatusOK, http.StatusForbidden, http.StatusBadRequest:
			return nil
		}
	}
	return fmt.Errorf("service did not respond on port %d within %v", port, startupTimeout)
}

// Stop shuts down the driver process, and the frame buffer if one was
// started.
func (s *Service) Stop() error {
	// Selenium 3 dropped the shutdown URL, so processes without one are
	// killed outright.
	if s.shutdownURLPath == "" {
		if err := s.cmd.Process.Kill(); err != nil {
			return err
		}
	} else {
		resp, err := http.Get(s.addr + s.shutdownURLPath)
		if err != nil {
			return err
		}
		resp.Body.Close()
	}
	if err := s.cmd.Wait(); err != nil && err.Error() != "signal: killed" {
		return err
	}
	if s.xvfb != nil {
		return s.xvfb.Stop()
	}
	return nil
}

// FrameBuffer controls an X virtual frame buffer running as a background
// process.
type FrameBuffer struct {
	// Display is the X11 display number the Xvfb process is hosting, without
	// the leading colon.
	Display string
	// AuthPath is the path to the X11 authorization file that permits clients
	// to use the X server, typically handed to them via XAUTHORITY.
	AuthPath string

	cmd *exec.Cmd
}

// NewFrameBuffer starts an X virtual frame buffer in the background with
// default options.
func NewFrameBuffer() (*FrameBuffer, error) {
	return NewFrameBufferWithOptions(FrameBufferOptions{})
}

var screenSizePattern = regexp.MustCompile(`^\d+x\d+(?:x\d+)?$`)

// NewFrameBufferWithOptions starts an X virtual frame buffer in the
// background.
func NewFrameBufferWithOptions(options FrameBufferOptions) (*FrameBuffer, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	auth, err := os.CreateTemp("", "gridwalk-xvfb")
	if err != nil {
		return nil, err
	}
	authPath := auth.Name()
	if err := auth.Close(); err != nil {
		return nil, err
	}

	// Xvfb prints the display it picked to file descriptor 3, for which we
	// provide a pipe.
	arguments := []string{"-displayfd", "3", "-nolisten", "tcp"}
	if options.ScreenSize != "" {
		if !screenSizePattern.MatchString(options.ScreenSize) {
			return nil, fmt.Errorf("invalid screen size: expected 'WxH[xD]', got %q", options.ScreenSize)
		}
		arguments = append(arguments, "-screen", "0", options.ScreenSize)
	}
	xvfb := exec.Command("Xvfb", arguments...)
	xvfb.ExtraFiles = []*os.File{w}
	xvfb.Env = append(os.Environ(), "XAUTHORITY="+authPath)
	if err := xvfb.Start(); err != nil {
		return nil, err
	}
	w.Close()

	type answer struct {
		display string
		err     error
	}
	ch := make(chan answer)
	go func() {
		bufr := bufio.NewReader(r)
		line, err := bufr.ReadString('\n')
		ch <- answer{line, err}
	}()

	var display string
	select {
	case a := <-ch:
		if a.err != nil {
			return nil, a.err
		}
		display = strings.TrimSpace(a.display)
		if _, err := strconv.Atoi(display); err != nil {
			return nil, errors.New("Xvfb did not print the display number")
		}
	case <-time.After(3 * time.Second):
		return nil, errors.New("timeout waiting for Xvfb")
	}

	xauth := exec.Command("xauth", "generate", ":"+display, ".", "trusted")
	xauth.Stderr = os.Stderr
	xauth.Stdout = os.Stdout
	xauth.Env = append(os.Environ(), "XAUTHORITY="+authPath)
	if err := xauth.Run(); err != nil {
		return nil, err
	}

	return &FrameBuffer{display, authPath, xvfb}, nil
}

// Stop kills the frame buffer process and removes its X authorization file.
func (f FrameBuffer) Stop() error {
	if err := f.cmd.Process.Kill(); err != nil {
		return err
	}
	os.Remove(f.AuthPath) // best effort removal
	if err := f.cmd.Wait(); err != nil && err.Error() != "signal: killed" {
		return err
	}
	return nil
}
