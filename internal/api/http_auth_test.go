package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"pudding/internal/entity"

	"github.com/gin-gonic/gin"
)

func TestRegister_并发注册只产生一个管理员(t *testing.T) {
	_, r := newTestHandler(t)

	const workers = 8
	codes := make([]int, workers)
	bodies := make([][]byte, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
				"email":    fmt.Sprintf("u%d@b.com", i),
				"password": "password123",
			})
			codes[i] = w.Code
			bodies[i] = w.Body.Bytes()
		}(i)
	}
	wg.Wait()

	admins := 0
	for i := 0; i < workers; i++ {
		if codes[i] != http.StatusCreated {
			t.Fatalf("注册 %d 失败: %d %s", i, codes[i], bodies[i])
		}
		var resp entity.AuthResponse
		if err := json.Unmarshal(bodies[i], &resp); err != nil {
			t.Fatalf("解析注册响应失败: %v", err)
		}
		if resp.User.Role == entity.UserRoleAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Fatalf("并发注册应恰好产生一个管理员, got %d", admins)
	}
}
