package stability

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	ApiBaseUrl = "https://api.stability.ai"

	generatePath = "/v2beta/3d/stable-fast-3d"
	balancePath  = "/v1/user/balance"

	// Generation is a synchronous multi-second call; balance is a cheap GET.
	DefaultGenerateTimeout = 120 * time.Second
	DefaultBalanceTimeout  = 30 * time.Second

	// CreditsPerGeneration is the flat cost the API charges for a successful
	// generation. Failed generations are not billed.
	CreditsPerGeneration = 10
)

// GenerationRequest carries the image payload and parameters for one
// Stable Fast 3D call. OutputPath is where the resulting GLB is written.
type GenerationRequest struct {
	Image      []byte
	ImageMIME  string
	Filename   string
	Params     Params
	OutputPath string
}

// GenerationResult describes a completed generation. It is constructed only
// after the GLB file has been written to OutputPath.
type GenerationResult struct {
	OutputPath     string
	BytesWritten   int
	CreditsCharged int
}

// BalanceResult is the remaining credit balance of the account.
type BalanceResult struct {
	Credits float64 `json:"credits"`
}

type ClientOpts struct {
	BaseURL         string
	APIKey          string
	GenerateTimeout time.Duration
	BalanceTimeout  time.Duration
}

// Client talks to the Stability AI HTTP API. It holds the API key as
// read-only configuration and owns all network I/O in this program.
type Client struct {
	httpClient      *resty.Client
	apiKey          string
	generateTimeout time.Duration
	balanceTimeout  time.Duration
}

func NewClient(opts ClientOpts) *Client {
	c := Client{
		apiKey:          opts.APIKey,
		generateTimeout: DefaultGenerateTimeout,
		balanceTimeout:  DefaultBalanceTimeout,
	}
	baseURL := ApiBaseUrl
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	if opts.GenerateTimeout != 0 {
		c.generateTimeout = opts.GenerateTimeout
	}
	if opts.BalanceTimeout != 0 {
		c.balanceTimeout = opts.BalanceTimeout
	}
	c.httpClient = resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "*/*")

	return &c
}

func (c *Client) req(ctx context.Context) *resty.Request {
	return c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey)
}

// checkCredentials rejects calls before any network I/O when no API key is
// configured for the process.
func (c *Client) checkCredentials() error {
	if c.apiKey == "" {
		return &Error{
			Kind: KindMissingCredentials,
			Message: "STABILITY_API_KEY environment variable is not set. " +
				"Please set it to your Stability AI API key.",
		}
	}
	return nil
}

// Generate posts the image and parameters to the Stable Fast 3D endpoint and
// writes the returned GLB to req.OutputPath. The remote call is synchronous;
// there is no job polling.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, &Error{Kind: KindInvalidInput, Message: "image payload is empty"}
	}
	if req.OutputPath == "" {
		return nil, &Error{Kind: KindInvalidInput, Message: "output path is empty"}
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	log.Info().
		Str("filename", req.Filename).
		Int("imageBytes", len(req.Image)).
		Str("outputPath", req.OutputPath).
		Msg("sending generation request")

	res, err := c.req(ctx).
		SetMultipartField("image", req.Filename, req.ImageMIME, bytes.NewReader(req.Image)).
		SetMultipartFormData(req.Params.formValues()).
		Post(generatePath)
	if err != nil {
		return nil, translateTransportError(err)
	}
	if res.IsError() {
		return nil, translateErrorResponse(res.StatusCode(), res.Body())
	}
	if res.StatusCode() != http.StatusOK {
		return nil, &Error{
			Kind:    KindUnknown,
			Status:  res.StatusCode(),
			Message: "unexpected response status " + res.Status(),
		}
	}

	written, err := writeGLB(req.OutputPath, res.Body())
	if err != nil {
		return nil, err
	}

	log.Info().Str("outputPath", req.OutputPath).Int("bytes", written).Msg("3d model generated")

	return &GenerationResult{
		OutputPath:     req.OutputPath,
		BytesWritten:   written,
		CreditsCharged: CreditsPerGeneration,
	}, nil
}

// Balance fetches the remaining credit balance of the account.
func (c *Client) Balance(ctx context.Context) (*BalanceResult, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.balanceTimeout)
	defer cancel()

	res, err := c.req(ctx).Get(balancePath)
	if err != nil {
		return nil, translateTransportError(err)
	}
	if res.IsError() {
		return nil, translateErrorResponse(res.StatusCode(), res.Body())
	}

	return parseBalance(res.Body())
}
