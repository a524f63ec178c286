// Package paramstore reads secrets from AWS Systems Manager Parameter Store.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var ErrNoValue = errors.New("paramstore: parameter has no value")

// ssmAPI is the part of *ssm.Client the store uses.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type Store struct {
	api ssmAPI
}

func New(api ssmAPI) (*Store, error) {
	if api == nil {
		return nil, errors.New("paramstore: nil SSM client")
	}
	return &Store{api: api}, nil
}

// FromEnvironment builds a Store from the default AWS credential chain
// (environment, shared config, instance role).
func FromEnvironment(ctx context.Context) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("paramstore: load aws config: %w", err)
	}
	return New(ssm.NewFromConfig(cfg))
}

// Secret returns the decrypted value of the named parameter.
func (s *Store) Secret(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: empty parameter name")
	}

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || strings.TrimSpace(aws.ToString(out.Parameter.Value)) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoValue, name)
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}
