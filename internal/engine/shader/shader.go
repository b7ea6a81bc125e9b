// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Stage is the source of one shader stage.
type Stage struct {
	Type   uint32 // gl.VERTEX_SHADER, gl.FRAGMENT_SHADER
	Name   string
	Source string
}

// CompileProgram compiles a vertex and a fragment shader and links them.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	return Link(
		Stage{Type: gl.VERTEX_SHADER, Name: "vertex", Source: vertexSrc},
		Stage{Type: gl.FRAGMENT_SHADER, Name: "fragment", Source: fragmentSrc},
	)
}

// Link compiles all stages and links them into a program.
func Link(stages ...Stage) (uint32, error) {
	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()

	for _, st := range stages {
		s, err := compile(st)
		if err != nil {
			return 0, err
		}
		shaders = append(shaders, s)
	}

	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
		log := make([]byte, n+1)
		gl.GetProgramInfoLog(program, n, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, compileError("link", log)
	}

	for _, s := range shaders {
		gl.DetachShader(program, s)
	}
	return program, nil
}

func compile(st Stage) (uint32, error) {
	s := gl.CreateShader(st.Type)
	src, free := gl.Strs(st.Source + "\x00")
	gl.ShaderSource(s, 1, src, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &n)
		log := make([]byte, n+1)
		gl.GetShaderInfoLog(s, n, nil, &log[0])
		gl.DeleteShader(s)
		return 0, compileError(st.Name+" shader", log)
	}
	return s, nil
}

// compileError turns a NUL terminated driver log into an error.
func compileError(what string, log []byte) error {
	if i := strings.IndexByte(string(log), 0); i >= 0 {
		log = log[:i]
	}
	msg := strings.TrimSpace(string(log))
	if msg == "" {
		msg = "no driver log"
	}
	return fmt.Errorf("%s: %s", what, msg)
}

// GetUniform returns the uniform location for name, -1 if the uniform is
// missing or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// GetAttrib returns the attribute location for name, -1 if the attribute is
// missing or inactive.
func GetAttrib(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}
