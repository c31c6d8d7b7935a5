package main

import (
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionManager 管理MCP会话，每个会话一个 MCP Server 实例
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*mcp.Server
	appServer *AppServer
}

// NewSessionManager 创建新的会话管理器
func NewSessionManager(appServer *AppServer) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*mcp.Server),
		appServer: appServer,
	}
}

// GetOrCreateSession 获取或创建会话
func (sm *SessionManager) GetOrCreateSession(sessionID string) *mcp.Server {
	sm.mu.RLock()
	server, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if exists {
		return server
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// 再次检查，避免竞态条件
	if server, exists = sm.sessions[sessionID]; exists {
		return server
	}

	server = InitMCPServer(sm.appServer)
	sm.sessions[sessionID] = server

	return server
}

// Count 当前会话数量
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
