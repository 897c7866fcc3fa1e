package inputsource

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
)

// ioctl request encoding, the kernel's _IOC macro
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr(dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

// EVIOCGBIT(ev, len) = _IOC(_IOC_READ, 'E', 0x20 + ev, len)
func eviocgbit(ev, size int) uintptr {
	return ioc(iocRead, 'E', uint32(0x20+ev), uint32(size))
}

// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func eviocgname(size int) uintptr {
	return ioc(iocRead, 'E', 0x06, uint32(size))
}

// EVIOCGKEY(len) = _IOC(_IOC_READ, 'E', 0x18, len)
func eviocgkey(size int) uintptr {
	return ioc(iocRead, 'E', 0x18, uint32(size))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
func eviocgrab() uintptr {
	return ioc(iocWrite, 'E', 0x90, uint32(unsafe.Sizeof(int32(0))))
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// struct input_event: a timeval followed by type, code and value
var eventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

type Config struct {
	// Dir holds the event nodes, normally /dev/input.
	Dir string
	// Grab takes the devices exclusively from the start.
	Grab bool
	// Screen bounds the virtual pointer relative mice move.
	Screen devstate.Vec2
	// Backlog is the capacity of the inputs channel.
	Backlog int
}

type device struct {
	path    string
	fd      int
	name    string
	caps    capabilities
	parser  parser
	decoder decoder
}

type Handle struct {
	cfg Config

	mu      sync.Mutex
	stopped bool
	err     error

	inputs  chan inputevent.Event
	pointer *pointer
	devices map[int]*device

	grab     atomic.Bool
	hotplug  chan string
	quit     chan struct{}
	done     chan struct{}
	wakeR    int
	wakeW    int
	watcher  *fsnotify.Watcher
	watching sync.WaitGroup
}

// Start opens every keyboard and mouse under cfg.Dir and starts reading
// them on a dedicated goroutine. Devices plugged in later are picked up.
func Start(cfg Config) (*Handle, error) {
	if cfg.Dir == "" {
		cfg.Dir = "/dev/input"
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = 1_000
	}

	var pipe [2]int
	if err := unix.Pipe2(pipe[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("failed to create wake pipe: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		unix.Close(pipe[0])
		unix.Close(pipe[1])
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(cfg.Dir); err != nil {
		watcher.Close()
		unix.Close(pipe[0])
		unix.Close(pipe[1])
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Dir, err)
	}

	h := &Handle{
		cfg:     cfg,
		inputs:  make(chan inputevent.Event, cfg.Backlog),
		pointer: newPointer(cfg.Screen),
		devices: make(map[int]*device),
		hotplug: make(chan string, 64),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		wakeR:   pipe[0],
		wakeW:   pipe[1],
		watcher: watcher,
	}
	h.grab.Store(cfg.Grab)

	paths, err := filepath.Glob(filepath.Join(cfg.Dir, "event*"))
	if err != nil {
		h.closeAll()
		return nil, err
	}
	for _, path := range paths {
		h.open(path)
	}
	if len(h.devices) == 0 {
		slog.Warn("no keyboard or mouse found, waiting for hotplug", "dir", cfg.Dir)
	}

	h.watching.Add(1)
	go h.watch()

	go func() {
		err := h.run()

		h.mu.Lock()
		defer h.mu.Unlock()
		h.stopped = true
		h.err = err
		h.closeAll()
		close(h.inputs)
		close(h.done)
	}()

	return h, nil
}

func (h *Handle) Inputs() <-chan inputevent.Event {
	return h.inputs
}

func (h *Handle) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stop releases every device and returns once the read loop has exited.
func (h *Handle) Stop() {
	h.mu.Lock()
	if !h.stopped {
		select {
		case <-h.quit:
		default:
			close(h.quit)
		}
		h.wake()
	}
	h.mu.Unlock()

	<-h.done
}

// SetGrab takes or releases exclusive access to the devices, so input stops
// or resumes reaching the rest of the system.
func (h *Handle) SetGrab(flag bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.grab.Store(flag)
	h.wake()
}

// wake interrupts poll. The pipe is closed once the loop stops, so callers
// other than the watcher must hold mu and check stopped.
func (h *Handle) wake() {
	// a full pipe already has a wakeup pending
	_, _ = unix.Write(h.wakeW, []byte{0})
}

func (h *Handle) watch() {
	defer h.watching.Done()
	for {
		select {
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) || !strings.HasPrefix(filepath.Base(ev.Name), "event") {
				continue
			}
			select {
			case h.hotplug <- ev.Name:
				h.wake()
			default:
				slog.Warn("dropping hotplug, channel was blocked", "path", ev.Name)
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (h *Handle) run() error {
	buf := make([]byte, eventSize*64)
	grabbed := h.grab.Load()

	for {
		// Achtung!
		//
		// This loop must never block anywhere but in poll. Every send to
		// the inputs channel drops when the channel is full.

		fds := make([]unix.PollFd, 0, len(h.devices)+1)
		fds = append(fds, unix.PollFd{Fd: int32(h.wakeR), Events: unix.POLLIN})
		for fd := range h.devices {
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		}

		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll failed: %w", err)
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			h.drainWake()
			select {
			case <-h.quit:
				return nil
			default:
			}
			h.openPending()
			if want := h.grab.Load(); want != grabbed {
				for _, d := range h.devices {
					setGrab(d, want)
				}
				grabbed = want
			}
		}

		for _, pfd := range fds[1:] {
			if pfd.Revents == 0 {
				continue
			}
			d, ok := h.devices[int(pfd.Fd)]
			if !ok {
				continue
			}
			if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				h.close(d)
				continue
			}
			n, err := unix.Read(d.fd, buf)
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil || n == 0 {
				slog.Debug("device read failed", "path", d.path, "error", err)
				h.close(d)
				continue
			}
			d.parser.feed(buf[:n], func(typ, code uint16, value int32) {
				d.decoder.decode(typ, code, value, h.send)
			})
		}
	}
}

func (h *Handle) send(ev inputevent.Event) {
	select {
	case h.inputs <- ev:
	default:
		slog.Warn("dropping input, channel was blocked", "kind", ev.Kind())
	}
}

func (h *Handle) drainWake() {
	var b [64]byte
	for {
		n, err := unix.Read(h.wakeR, b[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (h *Handle) openPending() {
	for {
		select {
		case path := <-h.hotplug:
			h.open(path)
		default:
			return
		}
	}
}

func (h *Handle) open(path string) {
	for _, d := range h.devices {
		if d.path == path {
			return
		}
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		slog.Warn("failed to open device", "path", path, "error", err)
		return
	}

	evBits := make([]byte, 4)
	keyBits := make([]byte, (keyMax+1)/8)
	relBits := make([]byte, 2)
	if err := ioctl(fd, eviocgbit(0, len(evBits)), unsafe.Pointer(&evBits[0])); err != nil {
		slog.Debug("not an evdev node", "path", path, "error", err)
		unix.Close(fd)
		return
	}
	_ = ioctl(fd, eviocgbit(evKey, len(keyBits)), unsafe.Pointer(&keyBits[0]))
	_ = ioctl(fd, eviocgbit(evRel, len(relBits)), unsafe.Pointer(&relBits[0]))

	caps := classify(evBits, keyBits, relBits)
	if !caps.keyboard && !caps.mouse {
		unix.Close(fd)
		return
	}

	d := &device{
		path:   path,
		fd:     fd,
		name:   deviceName(fd),
		caps:   caps,
		parser: parser{size: eventSize},
		decoder: decoder{
			device:   deviceID(path),
			pointer:  h.pointer,
			keyState: func() ([]byte, error) { return keyState(fd) },
		},
	}
	h.devices[fd] = d
	if h.grab.Load() {
		setGrab(d, true)
	}

	slog.Info("device opened", "path", path, "name", d.name, "keyboard", caps.keyboard, "mouse", caps.mouse)
	if caps.keyboard {
		h.send(inputevent.KeyboardAdded{Source: d.decoder.source()})
	}
	if caps.mouse {
		h.send(inputevent.MouseAdded{Source: d.decoder.source()})
	}
}

func (h *Handle) close(d *device) {
	delete(h.devices, d.fd)
	unix.Close(d.fd)

	slog.Info("device closed", "path", d.path, "name", d.name)
	if d.caps.keyboard {
		h.send(inputevent.KeyboardRemoved{Source: d.decoder.source()})
	}
	if d.caps.mouse {
		h.send(inputevent.MouseRemoved{Source: d.decoder.source()})
	}
}

func (h *Handle) closeAll() {
	h.watcher.Close()
	h.watching.Wait()
	for _, d := range h.devices {
		if h.grab.Load() {
			setGrab(d, false)
		}
		unix.Close(d.fd)
	}
	clear(h.devices)
	unix.Close(h.wakeR)
	unix.Close(h.wakeW)
}

func setGrab(d *device, flag bool) {
	var v int32
	if flag {
		v = 1
	}
	// EVIOCGRAB takes the int by value
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), eviocgrab(), uintptr(v))
	if errno != 0 {
		slog.Warn("failed to set grab", "path", d.path, "grab", flag, "error", errno)
	}
}

func deviceName(fd int) string {
	buf := make([]byte, 256)
	if err := ioctl(fd, eviocgname(len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return ""
	}
	if i := strings.IndexByte(string(buf), 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

// deviceID derives a stable id from the node number, offset so that id 0
// is never used.
func deviceID(path string) inputevent.DeviceID {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "event"))
	if err != nil {
		return 0
	}
	return inputevent.DeviceID(n + 1)
}

func keyState(fd int) ([]byte, error) {
	buf := make([]byte, (keyMax+1)/8)
	if err := ioctl(fd, eviocgkey(len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return nil, fmt.Errorf("failed to read key state: %w", err)
	}
	return buf, nil
}
