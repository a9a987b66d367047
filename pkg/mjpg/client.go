package mjpg

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/motioneye-project/mjpgrelay/pkg/tcp"
)

// Auth modes, matching the motion stream server settings.
const (
	AuthNone   = ""
	AuthBasic  = "basic"
	AuthDigest = "digest"
)

type Config struct {
	CameraID int
	Host     string
	Port     int
	Username string
	Password string
	Auth     string        // none, basic or digest
	Timeout  time.Duration // dial timeout
}

// State of one stream connection. Exactly one client per camera may be in a
// non-closed state at any time, enforced by the owning registry.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStatusLine
	StateChallenge
	StateContentLength
	StateFrame
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStatusLine:
		return "status"
	case StateChallenge:
		return "challenge"
	case StateContentLength:
		return "length"
	case StateFrame:
		return "frame"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client pulls a continuous MJPEG stream from a motion daemon: one socket,
// an HTTP/1.0 style handshake with optional auth round trip, then a loop of
// Content-Length delimited JPEG frames. Every frame goes into the cache.
//
// A client runs on its own goroutine and never blocks its callers. Any
// transport or protocol fault closes the socket and reports the error via
// OnClose; a deliberate Stop reports nil.
type Client struct {
	// OnConnect fires once the socket is established. Set before Start.
	OnConnect func()
	// OnClose fires exactly once when the connection dies. A non-nil error
	// means a fault, nil means a deliberate close.
	OnClose func(err error)

	conf  Config
	cache *FrameCache

	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader

	state   int32
	closing int32
	recv    uint32

	frameSize int
}

func NewClient(conf Config, cache *FrameCache) *Client {
	if conf.Timeout == 0 {
		conf.Timeout = 3 * time.Second
	}
	if conf.Host == "" {
		conf.Host = "127.0.0.1"
	}
	return &Client{conf: conf, cache: cache}
}

// Start runs the connection on its own goroutine and returns immediately.
func (c *Client) Start() {
	c.setState(StateConnecting)
	go c.run()
}

// Stop closes the connection deliberately. OnClose will report a nil error.
func (c *Client) Stop() {
	atomic.StoreInt32(&c.closing, 1)

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

func (c *Client) State() State {
	return State(atomic.LoadInt32(&c.state))
}

func (c *Client) Closed() bool {
	return c.State() == StateClosed
}

func (c *Client) Port() int {
	return c.conf.Port
}

func (c *Client) Cache() *FrameCache {
	return c.cache
}

func (c *Client) MarshalJSON() ([]byte, error) {
	var info = struct {
		Camera int     `json:"camera"`
		Port   int     `json:"port"`
		State  string  `json:"state"`
		Recv   uint32  `json:"recv"`
		FPS    float64 `json:"fps"`
	}{
		Camera: c.conf.CameraID,
		Port:   c.conf.Port,
		State:  c.State().String(),
		Recv:   atomic.LoadUint32(&c.recv),
		FPS:    c.cache.FPS(time.Now()),
	}
	return json.Marshal(info)
}

func (c *Client) setState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
}

func (c *Client) run() {
	err := c.loop()

	// a close we asked for is not a fault
	if atomic.LoadInt32(&c.closing) != 0 {
		err = nil
	}

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()

	c.setState(StateClosed)

	if c.OnClose != nil {
		c.OnClose(err)
	}
}

func (c *Client) loop() error {
	for atomic.LoadInt32(&c.closing) == 0 {
		var err error

		switch c.State() {
		case StateConnecting:
			err = c.connect()
		case StateStatusLine:
			err = c.readStatus()
		case StateChallenge:
			err = c.readChallenge()
		case StateContentLength:
			err = c.readLength()
		case StateFrame:
			err = c.readFrame()
		case StateClosed:
			return nil
		}

		if err != nil {
			return err
		}
	}
	return nil
}

// connect dials the stream endpoint and sends the initial request. Basic
// credentials go out with the first request, digest waits for the 401.
func (c *Client) connect() error {
	addr := net.JoinHostPort(c.conf.Host, strconv.Itoa(c.conf.Port))
	conn, err := net.DialTimeout("tcp", addr, c.conf.Timeout)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.rd = bufio.NewReader(conn)
	c.mu.Unlock()

	if c.OnConnect != nil {
		c.OnConnect()
	}

	var authorization string
	if c.conf.Auth == AuthBasic {
		authorization = tcp.BasicAuth(c.conf.Username, c.conf.Password)
	}

	if err = c.request(authorization); err != nil {
		return err
	}

	c.setState(StateStatusLine)
	return nil
}

func (c *Client) request(authorization string) error {
	req := "GET / HTTP/1.0\r\n"
	if authorization != "" {
		req += "Authorization: " + authorization + "\r\n"
	}
	req += "Connection: close\r\n\r\n"

	_, err := c.conn.Write([]byte(req))
	return err
}

// readStatus scans for the next status line, skipping any leftovers of a
// previous response (the 401 tail after an auth round trip).
func (c *Client) readStatus() error {
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}

		code, ok := statusCode(line)
		if !ok {
			continue
		}

		if code == http.StatusUnauthorized {
			c.setState(StateChallenge)
		} else {
			c.setState(StateContentLength)
		}
		return nil
	}
}

// readChallenge scans the 401 response for the WWW-Authenticate header,
// computes the matching Authorization value and resends the request.
func (c *Client) readChallenge() error {
	var auth string
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if v, ok := headerValue(line, "WWW-Authenticate"); ok {
			auth = v
			break
		}
	}

	var authorization string
	var err error

	switch {
	case strings.HasPrefix(auth, "Digest"):
		ch := tcp.ParseChallenge(auth)
		if authorization, err = tcp.DigestAuth("GET", "/", c.conf.Username, c.conf.Password, ch); err != nil {
			return err
		}
	case strings.HasPrefix(auth, "Basic"):
		authorization = tcp.BasicAuth(c.conf.Username, c.conf.Password)
	default:
		return errors.New("mjpg: unsupported authentication: " + auth)
	}

	if err = c.request(authorization); err != nil {
		return err
	}

	c.setState(StateStatusLine)
	return nil
}

// readLength scans headers for Content-Length, takes the first integer
// after it as the frame size, then skips the rest of the header block.
func (c *Client) readLength() error {
	var value string
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if v, ok := headerValue(line, "Content-Length"); ok {
			value = v
			break
		}
	}

	// headers end at the first empty line after the length header
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line == "" {
			break
		}
	}

	size, ok := firstInt(value)
	if !ok {
		return errors.New("mjpg: no content length in " + strconv.Quote(value))
	}

	c.frameSize = size
	c.setState(StateFrame)
	return nil
}

// readFrame reads exactly frameSize bytes and stores them as the latest
// frame, then loops back to the next length header.
func (c *Client) readFrame() error {
	frame := make([]byte, c.frameSize)
	if _, err := io.ReadFull(c.rd, frame); err != nil {
		return err
	}

	c.cache.Store(frame, time.Now())
	atomic.AddUint32(&c.recv, uint32(len(frame)))

	c.setState(StateContentLength)
	return nil
}

func (c *Client) readLine() (string, error) {
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// statusCode parses "HTTP/1.x NNN ..." lines.
func statusCode(line string) (int, bool) {
	if !strings.HasPrefix(line, "HTTP/") {
		return 0, false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

// headerValue matches a header line by name, case-insensitive.
func headerValue(line, name string) (string, bool) {
	if len(line) <= len(name) || line[len(name)] != ':' {
		return "", false
	}
	if !strings.EqualFold(line[:len(name)], name) {
		return "", false
	}
	return strings.TrimSpace(line[len(name)+1:]), true
}

// firstInt returns the first run of digits in s.
func firstInt(s string) (int, bool) {
	start := -1
	for i, b := range []byte(s) {
		if b >= '0' && b <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			s = s[:i]
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:])
	if err != nil {
		return 0, false
	}
	return n, true
}
