package route53

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/route53"
)

// MockRoute53Client is a mock implementation of Route53API for testing
type MockRoute53Client struct {
	ListHostedZonesByNameFunc    func(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
	ListResourceRecordSetsFunc   func(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSetsFunc func(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

func (m *MockRoute53Client) ListHostedZonesByName(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error) {
	if m.ListHostedZonesByNameFunc != nil {
		return m.ListHostedZonesByNameFunc(ctx, params, optFns...)
	}
	return nil, fmt.Errorf("ListHostedZonesByNameFunc not implemented")
}

func (m *MockRoute53Client) ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	if m.ListResourceRecordSetsFunc != nil {
		return m.ListResourceRecordSetsFunc(ctx, params, optFns...)
	}
	return nil, fmt.Errorf("ListResourceRecordSetsFunc not implemented")
}

func (m *MockRoute53Client) ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	if m.ChangeResourceRecordSetsFunc != nil {
		return m.ChangeResourceRecordSetsFunc(ctx, params, optFns...)
	}
	return nil, fmt.Errorf("ChangeResourceRecordSetsFunc not implemented")
}
