// !!!!!!! DO NOT EDIT !!!!!!!
// Auto-generated mock code from welcome/welcome_service.go
// !!!!!!! DO NOT EDIT !!!!!!!
package welcomerpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/monadicstack/welcome/welcome"
)

// MockWelcomeService lets you plug your own behavior into each WelcomeService operation while
// keeping track of how it was called. Operations without a function fail with an error.
//
//	mock := welcomerpc.MockWelcomeService{
//	    HelloFunc: func(ctx context.Context, req *welcome.HelloRequest) (*welcome.HelloResponse, error) {
//	        return &welcome.HelloResponse{Greet: "Howdy"}, nil
//	    },
//	}
//	...
//	mock.Calls.Hello.Times()
type MockWelcomeService struct {
	HelloFunc func(ctx context.Context, request *welcome.HelloRequest) (*welcome.HelloResponse, error)

	Calls struct {
		Hello MockCalls[welcome.HelloRequest]
	}
}

func (mock *MockWelcomeService) Hello(ctx context.Context, request *welcome.HelloRequest) (*welcome.HelloResponse, error) {
	mock.Calls.Hello.record(request)
	if mock.HelloFunc == nil {
		return nil, fmt.Errorf("MockWelcomeService: 'Hello' not implemented")
	}
	return mock.HelloFunc(ctx, request)
}

// MockCalls records every request a mock operation received. It's safe for concurrent use.
type MockCalls[T comparable] struct {
	mutex    sync.Mutex
	requests []T
}

func (calls *MockCalls[T]) record(request *T) {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()

	var value T
	if request != nil {
		value = *request
	}
	calls.requests = append(calls.requests, value)
}

// Times returns how many times the operation was called.
func (calls *MockCalls[T]) Times() int {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()
	return len(calls.requests)
}

// TimesFor returns how many times the operation was called with exactly this request.
func (calls *MockCalls[T]) TimesFor(request T) int {
	return calls.TimesMatching(func(r T) bool { return r == request })
}

// TimesMatching returns how many calls had a request that satisfies the predicate.
func (calls *MockCalls[T]) TimesMatching(predicate func(T) bool) int {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()

	count := 0
	for _, r := range calls.requests {
		if predicate(r) {
			count++
		}
	}
	return count
}

// Reset forgets every recorded call.
func (calls *MockCalls[T]) Reset() {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()
	calls.requests = nil
}
