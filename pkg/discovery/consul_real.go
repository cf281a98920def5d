//go:build consul

package discovery

import (
	"context"
	"fmt"
	"log"
	"time"

	consulapi "github.com/hashicorp/consul/api"
)

// Register announces this kiosk to Consul with a TTL health check, so a
// clinic running several kiosks can discover them. The registration is
// kept alive until ctx is done, then deregistered.
func Register(ctx context.Context, addr, service, id string, port int) error {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("consul client: %w", err)
	}

	checkID := "kiosk-ttl:" + id
	reg := &consulapi.AgentServiceRegistration{
		ID:   id,
		Name: service,
		Port: port,
		Check: &consulapi.AgentServiceCheck{
			CheckID:                        checkID,
			TTL:                            "15s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := cli.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("consul register: %w", err)
	}
	log.Printf("registered with consul service=%s id=%s", service, id)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				if err := cli.Agent().ServiceDeregister(id); err != nil {
					log.Printf("consul deregister failed id=%s: %v", id, err)
				}
				return
			case <-ticker.C:
				if err := cli.Agent().UpdateTTL(checkID, "kiosk alive", consulapi.HealthPassing); err != nil {
					log.Printf("consul ttl update failed: %v", err)
				}
			}
		}
	}()
	return nil
}
