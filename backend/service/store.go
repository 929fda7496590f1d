package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AnTengye/clausewise/backend/config"
	"github.com/AnTengye/clausewise/backend/model"
)

// ContractStore keeps document records in memory.
// Reports survive in object storage; records do not survive a restart.
type ContractStore struct {
	contracts    map[string]*model.Contract
	mu           sync.RWMutex
	maxContracts int // 0 = unlimited
}

var (
	globalStore *ContractStore
	storeOnce   sync.Once
)

func newContractStore(maxContracts int) *ContractStore {
	if maxContracts < 0 {
		maxContracts = 0
	}
	return &ContractStore{
		contracts:    make(map[string]*model.Contract),
		maxContracts: maxContracts,
	}
}

// InitContractStore initializes the global store once
func InitContractStore(cfg *config.StoreConfig) {
	storeOnce.Do(func() {
		globalStore = newContractStore(cfg.MaxContracts)
		slog.Info("contract store initialized", "max_contracts", globalStore.maxContracts)
	})
}

// GetContractStore returns the global store, creating a default one if needed
func GetContractStore() *ContractStore {
	storeOnce.Do(func() {
		globalStore = newContractStore(100)
	})
	return globalStore
}

func (s *ContractStore) Save(contract *model.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract.UpdatedAt = time.Now()
	s.contracts[contract.ID] = contract
	s.cleanupIfNeeded()
}

// Get returns a copy so callers can read it without holding the lock
func (s *ContractStore) Get(id string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// GetForTenant returns nil when the record belongs to another tenant
func (s *ContractStore) GetForTenant(id, tenant string) *model.Contract {
	c := s.Get(id)
	if c == nil || c.Tenant != tenant {
		return nil
	}
	return c
}

// GetByTenant lists a tenant's records, newest first
func (s *ContractStore) GetByTenant(tenant string) []*model.Contract {
	s.mu.RLock()
	result := make([]*model.Contract, 0)
	for _, c := range s.contracts {
		if c.Tenant == tenant {
			cp := *c
			result = append(result, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *ContractStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contracts, id)
}

func (s *ContractStore) update(id string, fn func(c *model.Contract)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return false
	}
	fn(c)
	c.UpdatedAt = time.Now()
	return true
}

func (s *ContractStore) UpdateStatus(id, status string, errMsg string) bool {
	return s.update(id, func(c *model.Contract) {
		c.Status = status
		c.ErrorMsg = errMsg
	})
}

// Transition moves a record from one status to another. It reports false
// when the record is missing or no longer in the from status.
func (s *ContractStore) Transition(id, from, to, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok || c.Status != from {
		return false
	}
	c.Status = to
	c.ErrorMsg = errMsg
	c.UpdatedAt = time.Now()
	return true
}

func (s *ContractStore) SetExtractTaskID(id, taskID string) bool {
	return s.update(id, func(c *model.Contract) {
		c.ExtractTaskID = taskID
		c.Status = model.StatusExtracting
	})
}

// SetAnalysis attaches the result and marks the record completed
func (s *ContractStore) SetAnalysis(id string, analysis *model.Analysis) bool {
	return s.update(id, func(c *model.Contract) {
		c.Analysis = analysis
		c.Status = model.StatusCompleted
		c.ErrorMsg = ""
	})
}

// FindByTaskID looks up the record waiting on an extraction task
func (s *ContractStore) FindByTaskID(taskID string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contracts {
		if c.ExtractTaskID == taskID {
			cp := *c
			return &cp
		}
	}
	return nil
}

// cleanupIfNeeded drops the oldest records beyond maxContracts.
// Must be called with lock held.
func (s *ContractStore) cleanupIfNeeded() {
	if s.maxContracts <= 0 || len(s.contracts) <= s.maxContracts {
		return
	}

	contracts := make([]*model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		contracts = append(contracts, c)
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})

	for _, c := range contracts[:len(contracts)-s.maxContracts] {
		slog.Info("auto-cleaning old contract", "contract_id", c.ID, "created_at", c.CreatedAt)
		delete(s.contracts, c.ID)
	}
}

func (s *ContractStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}
