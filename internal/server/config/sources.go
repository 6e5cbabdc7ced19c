package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
)

const (
	EnvFilePath           = "ENV_FILE_PATH"
	EnvAWSSecretID        = "AWS_SECRETS_MANAGER_SECRET_ID"
	EnvAWSSecretRegion    = "AWS_SECRETS_MANAGER_REGION"
	EnvAWSSecretStage     = "AWS_SECRETS_MANAGER_VERSION_STAGE"
	EnvAWSSecretOverwrite = "AWS_SECRETS_MANAGER_OVERWRITE"
)

// LoadEnvSources copies values from an AWS Secrets Manager secret (when
// AWS_SECRETS_MANAGER_SECRET_ID is set) and from a .env file into the process
// environment. Variables already present in the environment win.
func LoadEnvSources(ctx context.Context) {
	if secretID := os.Getenv(EnvAWSSecretID); secretID != "" {
		client, err := newSecretsClient(ctx, os.Getenv(EnvAWSSecretRegion))
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping AWS Secrets Manager: %v\n", err)
		} else {
			overwrite := strings.EqualFold(os.Getenv(EnvAWSSecretOverwrite), "true")
			n, err := applySecret(ctx, client, secretID, os.Getenv(EnvAWSSecretStage), overwrite)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping AWS Secrets Manager: %v\n", err)
			} else if n > 0 {
				fmt.Fprintf(os.Stderr, "loaded %d env vars from secret %s\n", n, secretID)
			}
		}
	}
	loadDotEnv(os.Getenv(EnvFilePath))
}

// loadDotEnv reads path, or ./.env when path is empty. A missing file is fine.
func loadDotEnv(path string) bool {
	if path == "" {
		path = ".env"
	}
	return godotenv.Load(path) == nil
}

type secretsGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func newSecretsClient(ctx context.Context, region string) (secretsGetter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// applySecret fetches a JSON object secret and exports its keys as
// environment variables. It returns how many variables were set.
func applySecret(ctx context.Context, client secretsGetter, secretID, stage string, overwrite bool) (int, error) {
	if stage == "" {
		stage = "AWSCURRENT"
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String(stage),
	})
	if err != nil {
		return 0, fmt.Errorf("fetching secret %s: %w", secretID, err)
	}

	var payload string
	switch {
	case out.SecretString != nil:
		payload = *out.SecretString
	case len(out.SecretBinary) > 0:
		payload = string(out.SecretBinary)
	default:
		return 0, fmt.Errorf("secret %s has no payload", secretID)
	}

	var kv map[string]any
	if err := json.Unmarshal([]byte(payload), &kv); err != nil {
		return 0, fmt.Errorf("parsing secret %s as JSON: %w", secretID, err)
	}

	applied := 0
	for key, val := range kv {
		if !overwrite && os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return applied, fmt.Errorf("setting env %s from secret: %w", key, err)
		}
		applied++
	}
	return applied, nil
}
