package engine

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
)

// stubIdentity implements awsx.STSIdentityAPI.
type stubIdentity struct {
	account string
	err     error
}

func (s *stubIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String(s.account)}, nil
}

func TestBrokerRejectsUnverifiedBaseSession(t *testing.T) {
	factory := NewRealFactory(Config{Region: "us-east-1"}, quietLogger())
	factory.client = &awsx.Client{STS: &stubIdentity{
		err: &smithy.GenericAPIError{Code: "InvalidClientTokenId", Message: "the security token is invalid"},
	}}

	_, err := factory.Broker(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := awsx.CodeOf(err); code != awsx.ErrInvalidCredentials {
		t.Errorf("code = %s, want InvalidCredentials", code)
	}
}

func TestBrokerReturnsAfterIdentityCheck(t *testing.T) {
	factory := NewRealFactory(Config{Region: "us-east-1"}, quietLogger())
	factory.client = &awsx.Client{STS: &stubIdentity{account: "123456789012"}}

	broker, err := factory.Broker(context.Background())
	if err != nil {
		t.Fatalf("Broker: %v", err)
	}
	if broker == nil {
		t.Fatal("expected a broker")
	}
}
