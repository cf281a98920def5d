//go:build !consul

package discovery

import (
	"context"
	"log"
)

// Register is a no-op when the consul build tag is not enabled.
func Register(_ context.Context, addr, service, id string, _ int) error {
	log.Printf("consul registration requested (addr=%s service=%s id=%s) but consul build tag not enabled; skipping", addr, service, id)
	return nil
}
