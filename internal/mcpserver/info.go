package mcpserver

import (
	"context"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/mark3labs/mcp-go/mcp"
)

const apiInfoURI = "info://stable-fast-3d"

var apiInfoText = strings.TrimSpace(dedent.Dedent(`
	# Stable Fast 3D API Information

	## Overview
	Stable Fast 3D generates high-quality 3D assets from a single 2D input image.
	The output is a GLB file (glTF binary format) that includes:
	- 3D mesh geometry
	- Albedo (color) texture map
	- Normal texture map

	## Cost
	- **10 credits** per successful generation
	- Failed generations are not charged

	## Input Image Requirements
	- **Formats:** JPEG, PNG, or WebP
	- **Dimensions:** Each side must be at least 64 pixels
	- **Total pixels:** Between 4,096 and 4,194,304 pixels
	- **Best practices:**
	  - Use images with a clear subject and clean background
	  - Object should be centered in the image
	  - Good lighting helps produce better results

	## Parameters

	### texture_resolution
	Resolution of the texture maps (albedo and normal).
	- "512" - Lower detail, smaller file size
	- "1024" - Default, good balance
	- "2048" - Higher detail, larger file size

	### foreground_ratio (0.1 - 1.0)
	Controls padding around the object.
	- Default: 0.85
	- Higher values = less padding, larger object
	- Lower values = more padding, smaller object
	- Tip: Lower values help with long/narrow objects viewed from the narrow side

	### remesh
	Controls the mesh topology.
	- "none" - Default, original mesh
	- "triangle" - Triangular faces
	- "quad" - Quadrilateral faces (useful for Maya/Blender)

	### vertex_count (-1 to 20000)
	Target vertex count for mesh simplification.
	- -1 - No limit (default)
	- Lower values create simpler meshes

	## Output
	The output is a binary GLB file containing:
	- JSON metadata
	- Geometry buffers
	- Texture images

	See: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
`))

func apiInfoResource() mcp.Resource {
	return mcp.NewResource(apiInfoURI, "Stable Fast 3D API Information",
		mcp.WithResourceDescription("Reference for the Stable Fast 3D API: cost, input image requirements and generation parameters."),
		mcp.WithMIMEType("text/markdown"),
	)
}

func handleAPIInfo(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      apiInfoURI,
			MIMEType: "text/markdown",
			Text:     apiInfoText,
		},
	}, nil
}
