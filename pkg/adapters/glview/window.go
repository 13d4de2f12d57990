// Package glview is the desktop window: a GLFW window with an OpenGL 4.1
// core context that draws the current texture as a letterboxed quad.
//
// The window must be created and driven from the main OS thread; call
// runtime.LockOSThread in an init function of the main package.
package glview

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/user/echoview/pkg/ports"
)

// Options configures the window.
type Options struct {
	Title  string
	Width  int
	Height int
	VSync  bool

	// OnDrop is called with the paths of files dropped on the window.
	OnDrop func(paths []string)
	// OnToggle is called when Space is pressed.
	OnToggle func()
}

// Window implements ports.Panel.
type Window struct {
	win  *glfw.Window
	opts Options

	program   uint32
	vao, vbo  uint32
	transform int32
	sampler   int32

	// What Show asked for this tick.
	handle        ports.TextureHandle
	boxW, boxH    int
	showing       bool
	lastFrameTime time.Time
	fps           float64
}

// Open initializes GLFW and GL and creates the window.
func Open(opts Options) (*Window, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("init gl: %w", err)
	}

	w := &Window{win: win, opts: opts}
	if err := w.setupQuad(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	win.SetDropCallback(func(_ *glfw.Window, names []string) {
		if w.opts.OnDrop != nil && len(names) > 0 {
			w.opts.OnDrop(names)
		}
	})
	win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			win.SetShouldClose(true)
		case glfw.KeySpace:
			if w.opts.OnToggle != nil {
				w.opts.OnToggle()
			}
		}
	})

	return w, nil
}

const vertexShader = `
#version 410 core
layout (location = 0) in vec2 position;
layout (location = 1) in vec2 texCoord;
uniform mat4 transform;
out vec2 uv;
void main() {
	gl_Position = transform * vec4(position, 0.0, 1.0);
	uv = texCoord;
}
` + "\x00"

const fragmentShader = `
#version 410 core
in vec2 uv;
uniform sampler2D frame;
out vec4 color;
void main() {
	color = vec4(texture(frame, uv).rgb, 1.0);
}
` + "\x00"

// Two triangles covering clip space. Texture rows start at the top.
var quad = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	-1, 1, 0, 0,
}

func (w *Window) setupQuad() error {
	program, err := compileProgram(vertexShader, fragmentShader)
	if err != nil {
		return err
	}
	w.program = program
	w.transform = gl.GetUniformLocation(program, gl.Str("transform\x00"))
	w.sampler = gl.GetUniformLocation(program, gl.Str("frame\x00"))

	gl.GenVertexArrays(1, &w.vao)
	gl.GenBuffers(1, &w.vbo)
	gl.BindVertexArray(w.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
	return nil
}

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (int, int) {
	return w.win.GetFramebufferSize()
}

// Show draws the texture this frame, fitted into width x height.
func (w *Window) Show(handle ports.TextureHandle, width, height int) {
	w.handle = handle
	w.boxW, w.boxH = width, height
	w.showing = handle != 0
}

// Clear stops drawing the last texture.
func (w *Window) Clear() {
	w.handle = 0
	w.showing = false
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// BeginFrame processes input and returns the smoothed UI frame rate.
// The first frame reports zero.
func (w *Window) BeginFrame() float64 {
	glfw.PollEvents()

	now := time.Now()
	if !w.lastFrameTime.IsZero() {
		w.fps = smoothFPS(w.fps, now.Sub(w.lastFrameTime).Seconds())
	}
	w.lastFrameTime = now
	return w.fps
}

// EndFrame draws what Show selected and swaps buffers.
func (w *Window) EndFrame() {
	fbW, fbH := w.Size()
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if w.showing {
		var texW, texH int32
		gl.BindTexture(gl.TEXTURE_2D, uint32(w.handle))
		gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_WIDTH, &texW)
		gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_HEIGHT, &texH)

		m := letterbox(int(texW), int(texH), w.boxW, w.boxH, fbW, fbH)
		gl.UseProgram(w.program)
		gl.UniformMatrix4fv(w.transform, 1, false, &m[0])
		gl.ActiveTexture(gl.TEXTURE0)
		gl.Uniform1i(w.sampler, 0)
		gl.BindVertexArray(w.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		gl.BindVertexArray(0)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}

	w.win.SwapBuffers()
}

// Close destroys GL objects and the window.
func (w *Window) Close() {
	gl.DeleteVertexArrays(1, &w.vao)
	gl.DeleteBuffers(1, &w.vbo)
	gl.DeleteProgram(w.program)
	w.win.Destroy()
	glfw.Terminate()
}

// letterbox returns the transform that fits a texW x texH image into a
// boxW x boxH area centred in a fbW x fbH framebuffer, keeping the image's
// aspect ratio.
func letterbox(texW, texH, boxW, boxH, fbW, fbH int) mgl32.Mat4 {
	if texW <= 0 || texH <= 0 || boxW <= 0 || boxH <= 0 || fbW <= 0 || fbH <= 0 {
		return mgl32.Scale3D(0, 0, 1)
	}

	scale := float32(boxW) / float32(texW)
	if s := float32(boxH) / float32(texH); s < scale {
		scale = s
	}
	w := float32(texW) * scale
	h := float32(texH) * scale

	return mgl32.Scale3D(w/float32(fbW), h/float32(fbH), 1)
}

// smoothFPS folds one frame interval into an exponential moving average of
// the frame rate.
func smoothFPS(prev, dt float64) float64 {
	if dt <= 0 {
		return prev
	}
	fps := 1 / dt
	if prev <= 0 {
		return fps
	}
	return prev*0.9 + fps*0.1
}

func compileProgram(vertexSource, fragmentSource string) (uint32, error) {
	vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %v", log)
	}
	return shader, nil
}

var _ ports.Panel = (*Window)(nil)
