package book

import "sync"

// CancelRegistry 记录每个用户排队中与运行中任务的取消标记
type CancelRegistry struct {
	mu     sync.Mutex
	tokens map[string]map[*CancelToken]struct{}
}

// NewCancelRegistry 创建注册表
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{tokens: make(map[string]map[*CancelToken]struct{})}
}

// Register 为用户的新任务登记取消标记，任务结束后调用返回的 release
func (r *CancelRegistry) Register(userID string) (*CancelToken, func()) {
	token := NewCancelToken()

	r.mu.Lock()
	set, ok := r.tokens[userID]
	if !ok {
		set = make(map[*CancelToken]struct{})
		r.tokens[userID] = set
	}
	set[token] = struct{}{}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if set, ok := r.tokens[userID]; ok {
			delete(set, token)
			if len(set) == 0 {
				delete(r.tokens, userID)
			}
		}
	}
	return token, release
}

// CancelUser 取消该用户所有未结束的任务，返回受影响的任务数
func (r *CancelRegistry) CancelUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.tokens[userID]
	for token := range set {
		token.Cancel()
	}
	return len(set)
}

// Active 该用户未结束的任务数
func (r *CancelRegistry) Active(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens[userID])
}
