package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/raine/stable-fast-3d-mcp/internal/input"
	"github.com/raine/stable-fast-3d-mcp/internal/stability"
)

// generationParamOptions are the tool schema options shared by both
// generation tools.
func generationParamOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("texture_resolution",
			mcp.Description("Resolution of the texture maps (albedo and normal). Higher values give more detail but a larger file."),
			mcp.Enum("512", "1024", "2048"),
			mcp.DefaultString(stability.DefaultTextureResolution),
		),
		mcp.WithNumber("foreground_ratio",
			mcp.Description("Padding around the object (0.1 to 1.0). Higher means less padding and a larger object; lower values help with long or narrow objects."),
			mcp.Min(0.1),
			mcp.Max(1.0),
			mcp.DefaultNumber(stability.DefaultForegroundRatio),
		),
		mcp.WithString("remesh",
			mcp.Description("Remeshing algorithm for the model. 'quad' is useful for DCC tools like Maya or Blender."),
			mcp.Enum("none", "quad", "triangle"),
			mcp.DefaultString(stability.DefaultRemesh),
		),
		mcp.WithNumber("vertex_count",
			mcp.Description("Target vertex count for mesh simplification (1 to 20000). -1 means no limit."),
			mcp.DefaultNumber(stability.DefaultVertexCount),
		),
	}
}

func generateModelTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Generate a 3D model (GLB file) from a 2D image using Stability AI's Stable Fast 3D API. Costs 10 credits per successful generation; failures are free."),
		mcp.WithString("image_path",
			mcp.Required(),
			mcp.Description("Path to the input image file (JPEG, PNG, or WebP). Each side should be 64-2048 pixels, with a total pixel count between 4,096 and 4,194,304."),
		),
		mcp.WithString("output_path",
			mcp.Description("Path for the output GLB file. Defaults to the input path with a .glb extension."),
		),
	}
	return mcp.NewTool("generate_3d_model", append(opts, generationParamOptions()...)...)
}

func generateModelFromBase64Tool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Generate a 3D model (GLB file) from a base64-encoded image using Stability AI's Stable Fast 3D API. Costs 10 credits per successful generation; failures are free."),
		mcp.WithString("image_base64",
			mcp.Required(),
			mcp.Description("Base64-encoded image data, without a data URL prefix."),
		),
		mcp.WithString("image_format",
			mcp.Required(),
			mcp.Description("Format of the encoded image."),
			mcp.Enum("jpeg", "png", "webp"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Path for the output GLB file."),
		),
	}
	return mcp.NewTool("generate_3d_model_from_base64", append(opts, generationParamOptions()...)...)
}

func checkBalanceTool() mcp.Tool {
	return mcp.NewTool("check_api_balance",
		mcp.WithDescription("Check the remaining credit balance of the Stability AI account."),
	)
}

func paramsFromRequest(request mcp.CallToolRequest) stability.Params {
	return stability.Params{
		TextureResolution: request.GetString("texture_resolution", stability.DefaultTextureResolution),
		ForegroundRatio:   request.GetFloat("foreground_ratio", stability.DefaultForegroundRatio),
		Remesh:            request.GetString("remesh", stability.DefaultRemesh),
		VertexCount:       request.GetInt("vertex_count", stability.DefaultVertexCount),
	}
}

// toolError maps a pipeline error onto a structured MCP error result. The
// kind tag is part of the message so the calling agent can tell retriable
// failures apart.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) generate(ctx context.Context, img *input.Image, outputPath string, params stability.Params) (*mcp.CallToolResult, error) {
	if err := params.Validate(); err != nil {
		return toolError(err), nil
	}

	result, err := s.client.Generate(ctx, stability.GenerationRequest{
		Image:      img.Data,
		ImageMIME:  img.MIME,
		Filename:   img.Filename,
		Params:     params,
		OutputPath: outputPath,
	})
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return toolError(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Successfully generated 3D model: %s (%d bytes, %d credits)",
		result.OutputPath, result.BytesWritten, result.CreditsCharged)), nil
}

func (s *Server) handleGenerateModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imagePath, err := request.RequireString("image_path")
	if err != nil {
		return toolError(err), nil
	}

	img, err := input.FromFile(imagePath)
	if err != nil {
		return toolError(err), nil
	}

	outputPath := request.GetString("output_path", "")
	if outputPath == "" {
		outputPath = input.DeriveOutputPath(imagePath)
	}

	log.Info().Str("imagePath", imagePath).Str("outputPath", outputPath).Msg("generate_3d_model called")
	return s.generate(ctx, img, outputPath, paramsFromRequest(request))
}

func (s *Server) handleGenerateModelFromBase64(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imageBase64, err := request.RequireString("image_base64")
	if err != nil {
		return toolError(err), nil
	}
	imageFormat, err := request.RequireString("image_format")
	if err != nil {
		return toolError(err), nil
	}
	outputPath, err := request.RequireString("output_path")
	if err != nil {
		return toolError(err), nil
	}

	img, err := input.FromBase64(imageBase64, imageFormat)
	if err != nil {
		return toolError(err), nil
	}

	log.Info().Str("outputPath", outputPath).Int("imageBytes", len(img.Data)).Msg("generate_3d_model_from_base64 called")
	return s.generate(ctx, img, outputPath, paramsFromRequest(request))
}

func (s *Server) handleCheckBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	balance, err := s.client.Balance(ctx)
	if err != nil {
		log.Error().Err(err).Msg("balance check failed")
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Current credit balance: %.2f credits", balance.Credits)), nil
}
