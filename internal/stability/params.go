package stability

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultTextureResolution = "1024"
	DefaultForegroundRatio   = 0.85
	DefaultRemesh            = "none"
	DefaultVertexCount       = -1

	// MaxVertexCount is the upper bound the API accepts for mesh
	// simplification.
	MaxVertexCount = 20000
)

var (
	textureResolutions = []string{"512", "1024", "2048"}
	remeshModes        = []string{"none", "quad", "triangle"}
)

// Params are the generation parameters of the Stable Fast 3D endpoint.
// Texture resolution is a string because the API treats it as an enum,
// not a number.
type Params struct {
	TextureResolution string
	ForegroundRatio   float64
	Remesh            string
	VertexCount       int
}

func DefaultParams() Params {
	return Params{
		TextureResolution: DefaultTextureResolution,
		ForegroundRatio:   DefaultForegroundRatio,
		Remesh:            DefaultRemesh,
		VertexCount:       DefaultVertexCount,
	}
}

// Validate checks every parameter against the ranges documented by the API
// and reports all offending fields at once. Validating locally avoids
// spending a paid API call on a request that is guaranteed to be rejected.
func (p Params) Validate() error {
	var problems []string

	if !slices.Contains(textureResolutions, p.TextureResolution) {
		problems = append(problems, fmt.Sprintf(
			"texture_resolution must be one of %s, got %q",
			strings.Join(textureResolutions, ", "), p.TextureResolution))
	}
	if p.ForegroundRatio < 0.1 || p.ForegroundRatio > 1.0 {
		problems = append(problems, fmt.Sprintf(
			"foreground_ratio must be between 0.1 and 1.0, got %v", p.ForegroundRatio))
	}
	if !slices.Contains(remeshModes, p.Remesh) {
		problems = append(problems, fmt.Sprintf(
			"remesh must be one of %s, got %q",
			strings.Join(remeshModes, ", "), p.Remesh))
	}
	if p.VertexCount != DefaultVertexCount && (p.VertexCount < 1 || p.VertexCount > MaxVertexCount) {
		problems = append(problems, fmt.Sprintf(
			"vertex_count must be -1 or between 1 and %d, got %d", MaxVertexCount, p.VertexCount))
	}

	if len(problems) > 0 {
		return &Error{Kind: KindInvalidInput, Message: strings.Join(problems, "; ")}
	}
	return nil
}

// formValues returns the parameters as multipart form fields. vertex_count
// is omitted at its default since the API treats absence as "no limit".
func (p Params) formValues() map[string]string {
	fields := map[string]string{
		"texture_resolution": p.TextureResolution,
		"foreground_ratio":   strconv.FormatFloat(p.ForegroundRatio, 'g', -1, 64),
		"remesh":             p.Remesh,
	}
	if p.VertexCount != DefaultVertexCount {
		fields["vertex_count"] = strconv.Itoa(p.VertexCount)
	}
	return fields
}
