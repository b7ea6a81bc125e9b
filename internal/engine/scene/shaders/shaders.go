// Package shaders holds the GLSL sources of the scene renderers.
package shaders

import _ "embed"

// ExtrusionVertexShader shades extruded walls, roofs and outlines. u_color
// holds the roof, even side, odd side and outline colours.
//
//go:embed extrusion.vert
var ExtrusionVertexShader string

// ExtrusionMeshVertexShader shades triangle meshes with their encoded face
// normal. Only u_color[0] is used.
//
//go:embed extrusion_mesh.vert
var ExtrusionMeshVertexShader string

// ExtrusionFragmentShader is shared by both extrusion programs.
//
//go:embed extrusion.frag
var ExtrusionFragmentShader string
