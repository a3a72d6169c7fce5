package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewRedisClient("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient failed: %v", err)
	}
	defer client.Close()
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not a url"); err == nil {
		t.Fatal("expected error for invalid Redis URL")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	if _, err := NewRedisClient("redis://" + addr); err == nil {
		t.Fatal("expected error for unreachable Redis")
	}
}
