// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package util

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type fakeSecrets struct {
	secret *string
	err    error
}

func (f fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secret}, nil
}

func TestGetPasswordFromSecretsManager(t *testing.T) {
	tests := []struct {
		name    string
		svc     fakeSecrets
		secret  string
		want    string
		wantErr bool
	}{
		{name: "password field", svc: fakeSecrets{secret: aws.String(`{"username":"u","password":"p"}`)}, secret: "rds!x", want: "p"},
		{name: "missing secret name", svc: fakeSecrets{}, wantErr: true},
		{name: "empty secret string", svc: fakeSecrets{}, secret: "rds!x", wantErr: true},
		{name: "empty password", svc: fakeSecrets{secret: aws.String(`{"password":""}`)}, secret: "rds!x", wantErr: true},
		{name: "bad json", svc: fakeSecrets{secret: aws.String(`nope`)}, secret: "rds!x", wantErr: true},
		{name: "api error", svc: fakeSecrets{err: errors.New("denied")}, secret: "rds!x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetPasswordFromSecretsManager(context.Background(), tt.svc, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetPasswordFromSecretsManager() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveDBPassword_NoLookup(t *testing.T) {
	pwd, err := ResolveDBPassword(context.Background(), "explicit", "ignored", "")
	if err != nil || pwd != "explicit" {
		t.Errorf("expected explicit password, got %q, %v", pwd, err)
	}

	pwd, err = ResolveDBPassword(context.Background(), "", "", "")
	if err != nil || pwd != "" {
		t.Errorf("expected empty password, got %q, %v", pwd, err)
	}

	if _, err := ResolveDBPassword(context.Background(), "", "rds!x", ""); err == nil {
		t.Error("expected error when region is missing")
	}
}
