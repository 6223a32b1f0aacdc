package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
)

// mockSTSClient implements STSAssumeAPI for testing.
type mockSTSClient struct {
	AssumeRoleFunc func(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

func (m *mockSTSClient) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	if m.AssumeRoleFunc != nil {
		return m.AssumeRoleFunc(ctx, params, optFns...)
	}
	return assumeRoleSuccess(), nil
}

func assumeRoleSuccess() *sts.AssumeRoleOutput {
	return &sts.AssumeRoleOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     awssdk.String("ASIATEST"),
			SecretAccessKey: awssdk.String("secret"),
			SessionToken:    awssdk.String("token"),
			Expiration:      awssdk.Time(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateRoleARN(t *testing.T) {
	tests := []struct {
		name    string
		arn     string
		wantErr bool
	}{
		{"valid basic", "arn:aws:iam::123456789012:role/FinopsScan", false},
		{"valid with path", "arn:aws:iam::123456789012:role/service/FinopsScan", false},
		{"valid with symbols", "arn:aws:iam::123456789012:role/scan-role_v2.prod@acme", false},
		{"empty", "", true},
		{"account too short", "arn:aws:iam::12345678901:role/FinopsScan", true},
		{"account too long", "arn:aws:iam::1234567890123:role/FinopsScan", true},
		{"account not numeric", "arn:aws:iam::12345678901a:role/FinopsScan", true},
		{"wrong service", "arn:aws:s3::123456789012:role/FinopsScan", true},
		{"user not role", "arn:aws:iam::123456789012:user/alice", true},
		{"missing role name", "arn:aws:iam::123456789012:role/", true},
		{"trailing garbage", "arn:aws:iam::123456789012:role/FinopsScan extra", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoleARN(tt.arn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRoleARN(%q) error = %v, wantErr %v", tt.arn, err, tt.wantErr)
			}
			if err != nil && CodeOf(err) != ErrInvalidRoleArn {
				t.Errorf("expected InvalidRoleArn code, got %s", CodeOf(err))
			}
		})
	}
}

func TestAccountIDFromARN(t *testing.T) {
	if got := AccountIDFromARN("arn:aws:iam::123456789012:role/FinopsScan"); got != "123456789012" {
		t.Errorf("expected account id, got %q", got)
	}
	if got := AccountIDFromARN("not-an-arn"); got != "" {
		t.Errorf("expected empty for invalid input, got %q", got)
	}
}

func TestAssumeRoleRejectsInvalidARNWithoutNetworkCall(t *testing.T) {
	broker := &CredentialBroker{
		Client: &mockSTSClient{
			AssumeRoleFunc: func(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
				t.Fatal("STS must not be called for a malformed ARN")
				return nil, nil
			},
		},
	}

	_, err := broker.AssumeRole(context.Background(), AssumeRoleRequest{RoleARN: "garbage"})
	if CodeOf(err) != ErrInvalidRoleArn {
		t.Fatalf("expected InvalidRoleArn, got %v", err)
	}
}

func TestAssumeRoleSessionDuration(t *testing.T) {
	tests := []struct {
		name      string
		requested int32
		want      int32
	}{
		{"default when unset", 0, DefaultSessionDuration},
		{"explicit value kept", 7200, 7200},
		{"capped at ceiling", 99999, MaxSessionDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDuration int32
			broker := &CredentialBroker{
				Client: &mockSTSClient{
					AssumeRoleFunc: func(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
						gotDuration = awssdk.ToInt32(params.DurationSeconds)
						return assumeRoleSuccess(), nil
					},
				},
			}

			_, err := broker.AssumeRole(context.Background(), AssumeRoleRequest{
				RoleARN:         "arn:aws:iam::123456789012:role/FinopsScan",
				DurationSeconds: tt.requested,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotDuration != tt.want {
				t.Errorf("duration = %d, want %d", gotDuration, tt.want)
			}
		})
	}
}

func TestAssumeRolePassesExternalID(t *testing.T) {
	var gotExternalID *string
	broker := &CredentialBroker{
		Client: &mockSTSClient{
			AssumeRoleFunc: func(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
				gotExternalID = params.ExternalId
				return assumeRoleSuccess(), nil
			},
		},
	}

	_, err := broker.AssumeRole(context.Background(), AssumeRoleRequest{
		RoleARN:    "arn:aws:iam::123456789012:role/FinopsScan",
		ExternalID: "acme-7f3a",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awssdk.ToString(gotExternalID) != "acme-7f3a" {
		t.Errorf("external id not forwarded, got %v", gotExternalID)
	}
}

func TestAssumeRoleErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		apiCode  string
		wantCode ErrorCode
	}{
		{"access denied", "AccessDenied", ErrAccessDenied},
		{"bad key id", "InvalidClientTokenId", ErrInvalidCredentials},
		{"expired token", "ExpiredToken", ErrInvalidCredentials},
		{"malformed policy", "MalformedPolicyDocument", ErrMalformedPolicy},
		{"unmapped code", "Throttling", ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &CredentialBroker{
				Client: &mockSTSClient{
					AssumeRoleFunc: func(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
						return nil, &smithy.GenericAPIError{Code: tt.apiCode, Message: "denied"}
					},
				},
			}

			_, err := broker.AssumeRole(context.Background(), AssumeRoleRequest{
				RoleARN: "arn:aws:iam::123456789012:role/FinopsScan",
			})
			if CodeOf(err) != tt.wantCode {
				t.Errorf("code = %s, want %s", CodeOf(err), tt.wantCode)
			}
			var typed *Error
			if !errors.As(err, &typed) {
				t.Fatal("expected a typed *Error")
			}
		})
	}
}

func TestClassifyCredentialResolutionFailure(t *testing.T) {
	err := classify(errors.New("failed to retrieve credentials: no providers in chain"), "load failed", ErrUnknown)
	if err.Code != ErrNoCredentials {
		t.Errorf("code = %s, want %s", err.Code, ErrNoCredentials)
	}
}
