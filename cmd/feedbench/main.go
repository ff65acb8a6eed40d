// feedbench 构造关注图与帖子，测量信息流翻页延迟。
//
//	N=2000 FOLLOWS=30 POSTS=10 CONC=8 PAGE=50 PAGES=5 go run ./cmd/feedbench
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-feed/config"
	"github.com/d60-Lab/social-feed/internal/cache"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/internal/service"
	"github.com/d60-Lab/social-feed/pkg/database"
	"github.com/d60-Lab/social-feed/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Log.Level, cfg.Log.Development)
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	N := envInt("N", 2000)
	FOLLOWS := envInt("FOLLOWS", 30)
	POSTS := envInt("POSTS", 10)
	CONC := envInt("CONC", 8)
	PAGE := envInt("PAGE", 50)
	PAGES := envInt("PAGES", 5)
	ctx := context.Background()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// 三分之一账号为私密
	prefix := model.NewAccountID().String()[:8]
	users := make([]model.User, N)
	for i := range users {
		id := fmt.Sprintf("%s-%06d", prefix, i)
		users[i] = model.User{ID: model.AccountID(id), Username: id, Email: id + "@example.com", Password: "p", IsPrivate: i%3 == 0}
	}
	seedStart := time.Now()
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}

	fanRepo := repository.NewFanRepository(db)
	replicator := service.NewFanReplicator(fanRepo, N*FOLLOWS, cfg.Replicator.Workers)
	stop := replicator.Start()
	relSvc := service.NewRelationshipService(repository.NewUserRepository(db), repository.NewFollowRepository(db), fanRepo, replicator)

	followRecs := make([]time.Duration, 0, N*FOLLOWS)
	for i := range users {
		for j := 0; j < FOLLOWS; j++ {
			to := users[r.Intn(N)].ID
			if to == users[i].ID {
				continue
			}
			st := time.Now()
			_ = relSvc.Follow(ctx, users[i].ID, to)
			followRecs = append(followRecs, time.Since(st))
		}
	}

	posts := make([]model.Post, 0, N*POSTS)
	base := time.Now().UTC().Add(-time.Duration(N*POSTS) * time.Second)
	for i := range users {
		for j := 0; j < POSTS; j++ {
			posts = append(posts, model.Post{
				ID:        model.NewPostID(),
				AuthorID:  users[i].ID,
				Content:   "bench",
				CreatedAt: base.Add(time.Duration(r.Intn(N*POSTS)) * time.Second),
			})
		}
	}
	if err := db.CreateInBatches(&posts, 1000).Error; err != nil {
		panic(err)
	}
	seedDur := time.Since(seedStart)

	// 配置了 redis 时作者信息走缓存，否则每页回源
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			panic(fmt.Sprintf("connect redis at %s: %v", cfg.Redis.Addr, err))
		}
	}
	authors := cache.NewAuthorCache(rdb, cfg.Redis.AuthorTTL)
	feed := service.NewFeedService(db, authors, pagination.Policy{Max: cfg.Feed.MaxPageSize})

	var (
		mu       sync.Mutex
		pageRecs []time.Duration
		items    int
		wg       sync.WaitGroup
	)
	jobs := make(chan model.AccountID, N)
	for i := range users {
		jobs <- users[i].ID
	}
	close(jobs)

	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for viewer := range jobs {
				req := pagination.Request{Limit: PAGE}
				for p := 0; p < PAGES; p++ {
					st := time.Now()
					page, err := feed.Feed(ctx, viewer, service.FeedOptions{Page: req})
					d := time.Since(st)
					if err != nil {
						logger.Warn("feed page failed", zap.Error(err))
						break
					}
					mu.Lock()
					pageRecs = append(pageRecs, d)
					items += len(page)
					mu.Unlock()
					if len(page) < PAGE {
						break
					}
					req = pagination.Request{Limit: PAGE, After: string(page[len(page)-1].ID)}
				}
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)

	drainStart := time.Now()
	_ = stop(ctx)
	drainDur := time.Since(drainStart)

	fmt.Printf("N=%d, FOLLOWS=%d, POSTS=%d, CONC=%d, PAGE=%d, PAGES=%d, driver=%s\n",
		N, FOLLOWS, POSTS, CONC, PAGE, PAGES, cfg.Database.Driver)
	fmt.Printf("Seed: %v\n", seedDur)
	fmt.Printf("Follow (async fan replication): p50=%v p95=%v p99=%v, replicator drain=%v\n",
		pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99), drainDur)
	fmt.Printf("Feed pages: %d in %v, items=%d, p50=%v p95=%v p99=%v\n",
		len(pageRecs), total, items, pct(pageRecs, 0.50), pct(pageRecs, 0.95), pct(pageRecs, 0.99))
	fmt.Printf("Author cache: redis=%v, db loads=%d\n", rdb != nil, authors.DBLoads())
}
