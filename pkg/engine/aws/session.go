package aws

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// STSIdentityAPI is the minimal STS surface used to validate the base session.
type STSIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Client encapsulates the base AWS session used before role assumption.
type Client struct {
	Config aws.Config
	STS    STSIdentityAPI
}

// NewClient loads the default credential chain for the given region. The
// returned config carries bounded adaptive retries for throttled reads and a
// custom User-Agent for backend audit logging.
func NewClient(ctx context.Context, region string) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryer(func() aws.Retryer {
			return retry.NewAdaptiveMode(func(o *retry.AdaptiveModeOptions) {
				o.StandardOptions = append(o.StandardOptions, func(so *retry.StandardOptions) {
					so.MaxAttempts = 5
				})
			})
		}),
	}

	// Local endpoint override, used by the integration harness.
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, classify(err, "unable to load SDK config", ErrNoCredentials)
	}

	cfg.APIOptions = append(cfg.APIOptions, withUserAgent)

	return &Client{
		Config: cfg,
		STS:    sts.NewFromConfig(cfg),
	}, nil
}

// ConfigForCredentials builds a regional config backed by a single scan's
// assumed credentials. Each collector receives its own copy; nothing is
// cached between scans.
func (c *Client) ConfigForCredentials(creds *AssumedCredentials, region string) aws.Config {
	cfg := c.Config.Copy()
	cfg.Region = region
	cfg.Credentials = credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
	return cfg
}

// VerifyIdentity validates the base session and retrieves the caller account.
func (c *Client) VerifyIdentity(ctx context.Context) (string, error) {
	result, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", classify(err, "failed to get caller identity", ErrInvalidCredentials)
	}
	return *result.Account, nil
}

func withUserAgent(stack *middleware.Stack) error {
	return stack.Build.Add(middleware.BuildMiddlewareFunc("ScannerUserAgent", func(ctx context.Context, input middleware.BuildInput, next middleware.BuildHandler) (
		middleware.BuildOutput, middleware.Metadata, error,
	) {
		if req, ok := input.Request.(*smithyhttp.Request); ok {
			ua := req.Header.Get("User-Agent")
			if ua == "" {
				ua = "finops-scan/v1"
			}
			req.Header.Set("User-Agent", fmt.Sprintf("%s (finops-saas)", ua))
		}
		return next.HandleBuild(ctx, input)
	}), middleware.After)
}
