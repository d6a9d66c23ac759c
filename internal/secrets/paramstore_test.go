package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	in  *ssm.GetParameterInput
	out *ssm.GetParameterOutput
	err error
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestGetParameter(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  aws.String("/pushchat/passphrase"),
		Value: aws.String("correct horse"),
		Type:  types.ParameterTypeSecureString,
	}}}
	p, err := New(api)
	require.NoError(t, err)

	v, err := p.GetParameter(context.Background(), " /pushchat/passphrase ")
	require.NoError(t, err)
	assert.Equal(t, "correct horse", v)
	assert.Equal(t, "/pushchat/passphrase", aws.ToString(api.in.Name))
	assert.True(t, aws.ToBool(api.in.WithDecryption))
}

func TestGetParameter_Failures(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	p, err := New(&fakeSSM{err: errors.New("boom")})
	require.NoError(t, err)
	_, err = p.GetParameter(context.Background(), "x")
	require.ErrorContains(t, err, "boom")

	_, err = p.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "name is required")

	p, err = New(&fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}})
	require.NoError(t, err)
	_, err = p.GetParameter(context.Background(), "x")
	require.ErrorContains(t, err, "has no value")
}
