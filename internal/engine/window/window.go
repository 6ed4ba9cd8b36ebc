// Package window creates the hidden SDL2 window that owns the OpenGL context
// used for offscreen filter work.
package window

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/logger"
)

// Config holds context configuration.
type Config struct {
	Title string
	// GL context version; 4.1 core is the highest macOS offers.
	Major int
	Minor int
}

// DefaultConfig returns a 4.1 core profile configuration.
func DefaultConfig() Config {
	return Config{Title: "waterways-bake", Major: 4, Minor: 1}
}

// Window wraps a hidden SDL2 window and its OpenGL context.
// All methods must be called from the goroutine that created it, which must
// be locked to its OS thread.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
}

// NewHidden creates a 1x1 hidden window with an OpenGL context made current
// on the calling thread.
func NewHidden(cfg Config) (*Window, error) {
	if cfg.Major == 0 {
		cfg.Major, cfg.Minor = 4, 1
	}
	w := &Window{config: cfg}
	log := logger.Named("window")

	log.Debug("initializing SDL2 video")
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// Attributes must be set before the window exists.
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, cfg.Major)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, cfg.Minor)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 0)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 0)

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		1, 1,
		uint32(sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN),
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	log.Info("offscreen GL context created",
		zap.Int("major", cfg.Major),
		zap.Int("minor", cfg.Minor))
	return w, nil
}

// MakeCurrent binds the context to the calling thread.
func (w *Window) MakeCurrent() error {
	return w.sdlWindow.GLMakeCurrent(w.glContext)
}

// Close destroys the context and window and shuts SDL2 down.
func (w *Window) Close() {
	logger.Named("window").Debug("closing offscreen context")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
		w.glContext = nil
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
		w.sdlWindow = nil
	}
	sdl.Quit()
}
