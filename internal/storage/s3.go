package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jusconnect/api/internal/config"
)

// S3API é o subconjunto do cliente S3 usado pelo driver.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	client    S3API
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewS3(client S3API, bucket, region, publicURL string) *S3 {
	if publicURL == "" || publicURL == "/arquivos" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3{client: client, bucket: bucket, publicURL: publicURL, now: time.Now}
}

func NewS3FromConfig(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("carregando configuração AWS: %w", err)
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Region, cfg.PublicURL), nil
}

func (s *S3) Driver() string { return config.StorageS3 }

func (s *S3) Save(ctx context.Context, nome, contentType string, r io.Reader) (Arquivo, error) {
	chave := NovaChave(nome, s.now())
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(chave),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	// o SDK precisa do tamanho para assinar; multipart.File já é seekable
	var tamanho int64
	if rs, ok := r.(io.ReadSeeker); ok {
		n, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return Arquivo{}, fmt.Errorf("medindo arquivo: %w", err)
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return Arquivo{}, fmt.Errorf("medindo arquivo: %w", err)
		}
		tamanho = n
		in.Body = rs
		in.ContentLength = aws.Int64(n)
	} else {
		data, err := io.ReadAll(r)
		if err != nil {
			return Arquivo{}, fmt.Errorf("lendo arquivo: %w", err)
		}
		tamanho = int64(len(data))
		in.Body = bytes.NewReader(data)
		in.ContentLength = aws.Int64(tamanho)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return Arquivo{}, fmt.Errorf("enviando %s ao S3: %w", chave, err)
	}
	return Arquivo{Chave: chave, URL: s.URL(chave), Nome: nome, Tamanho: tamanho, ContentType: contentType}, nil
}

func (s *S3) Delete(ctx context.Context, chave string) error {
	if err := ValidarChave(chave); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(chave),
	})
	if err != nil {
		return fmt.Errorf("removendo %s do S3: %w", chave, err)
	}
	return nil
}

func (s *S3) URL(chave string) string { return joinURL(s.publicURL, chave) }
