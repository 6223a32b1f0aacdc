package aws

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	// DefaultSessionDuration is used when the caller does not request one.
	DefaultSessionDuration = 3600
	// MaxSessionDuration is the STS chaining ceiling.
	MaxSessionDuration = 43200

	defaultSessionName = "finops-scan"
)

var roleArnPattern = regexp.MustCompile(`^arn:aws:iam::(\d{12}):role/[\w+=,.@/-]+$`)

// AssumedCredentials are the short-lived credentials for one scan. They are
// owned by a single invocation and discarded when it ends.
type AssumedCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// AssumeRoleRequest identifies the customer role to assume.
type AssumeRoleRequest struct {
	RoleARN         string
	ExternalID      string
	SessionName     string
	DurationSeconds int32
}

// STSAssumeAPI is the slice of the STS surface the broker needs.
type STSAssumeAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// CredentialBroker exchanges a customer role ARN for temporary credentials.
type CredentialBroker struct {
	Client STSAssumeAPI
	Logger *slog.Logger
}

// NewCredentialBroker builds a broker over the base session config.
func NewCredentialBroker(cfg aws.Config, logger *slog.Logger) *CredentialBroker {
	return &CredentialBroker{
		Client: sts.NewFromConfig(cfg),
		Logger: logger,
	}
}

// ValidateRoleARN checks the role identifier shape locally. Malformed input
// fails with InvalidRoleArn before any network round-trip.
func ValidateRoleARN(arn string) error {
	if !roleArnPattern.MatchString(arn) {
		return NewError(ErrInvalidRoleArn, "role ARN must match arn:aws:iam::<12-digit-account>:role/<name>")
	}
	return nil
}

// AccountIDFromARN extracts the 12-digit account from a valid role ARN.
// Returns "" for input that fails ARN validation.
func AccountIDFromARN(arn string) string {
	m := roleArnPattern.FindStringSubmatch(arn)
	if m == nil {
		return ""
	}
	return m[1]
}

// AssumeRole validates the request, calls STS, and classifies failures into
// the broker taxonomy: AccessDenied, InvalidCredentials, MalformedPolicy,
// NoCredentials, or UnknownError.
func (b *CredentialBroker) AssumeRole(ctx context.Context, req AssumeRoleRequest) (*AssumedCredentials, error) {
	if err := ValidateRoleARN(req.RoleARN); err != nil {
		return nil, err
	}

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	if duration > MaxSessionDuration {
		duration = MaxSessionDuration
	}

	sessionName := req.SessionName
	if sessionName == "" {
		sessionName = defaultSessionName
	}

	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(req.RoleARN),
		RoleSessionName: aws.String(sessionName),
		DurationSeconds: aws.Int32(duration),
	}
	if req.ExternalID != "" {
		input.ExternalId = aws.String(req.ExternalID)
	}

	out, err := b.Client.AssumeRole(ctx, input)
	if err != nil {
		return nil, classify(err, "assume role failed", ErrUnknown)
	}

	creds := out.Credentials
	if b.Logger != nil {
		b.Logger.Info("Role assumed", "expiration", creds.Expiration)
	}

	return &AssumedCredentials{
		AccessKeyID:     aws.ToString(creds.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.SecretAccessKey),
		SessionToken:    aws.ToString(creds.SessionToken),
		Expiration:      aws.ToTime(creds.Expiration),
	}, nil
}
