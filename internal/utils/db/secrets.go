package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jusconnect/api/internal/config"
)

// SecretsClient é o subconjunto do Secrets Manager usado aqui.
type SecretsClient interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewSecretsClient usa a cadeia padrão de credenciais da AWS.
func NewSecretsClient(ctx context.Context) (SecretsClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("carregando configuração AWS: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// RetrieveCredentials usa DB_USERNAME/DB_PASSWORD quando presentes, senão o segredo DB_SECRET_ID.
func RetrieveCredentials(ctx context.Context, cfg config.DatabaseConfig, secrets SecretsClient) (string, string, error) {
	if cfg.Username != "" && cfg.Password != "" {
		return cfg.Username, cfg.Password, nil
	}
	if cfg.SecretID == "" {
		return "", "", errors.New("credenciais do banco ausentes: defina DB_USERNAME/DB_PASSWORD ou DB_SECRET_ID")
	}
	if secrets == nil {
		var err error
		if secrets, err = NewSecretsClient(ctx); err != nil {
			return "", "", err
		}
	}

	result, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(cfg.SecretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("lendo segredo %s: %w", cfg.SecretID, err)
	}
	if result.SecretString == nil {
		return "", "", fmt.Errorf("segredo %s sem SecretString", cfg.SecretID)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return "", "", fmt.Errorf("decodificando segredo %s: %w", cfg.SecretID, err)
	}
	return secret.Username, secret.Password, nil
}
