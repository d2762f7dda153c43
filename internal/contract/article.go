package contract

import (
	"context"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/conorfennell/chainquiz/internal/domain"
)

type articleTuple struct {
	Id         *big.Int
	Title      string
	Content    string
	Category   string
	Difficulty string
	ReadTime   *big.Int
	Views      *big.Int
	Author     common.Address
}

type articleCreatedEvent struct {
	ArticleId *big.Int
	Title     string
	Author    common.Address
}

type userRewardedEvent struct {
	User      common.Address
	ArticleId *big.Int
	Message   string
}

// ArticleContract is the proxy for the article contract.
type ArticleContract struct {
	*boundContract
}

// NewArticleContract binds the article contract at address.
func NewArticleContract(address common.Address, backend Backend, signer Signer, journal Journal, logger *slog.Logger) (*ArticleContract, error) {
	c, err := newBoundContract("article", "article.json", address, backend, signer, journal, logger)
	if err != nil {
		return nil, err
	}
	return &ArticleContract{c}, nil
}

// GetArticle fetches one article. It returns nil, nil when the contract
// hands back an empty record.
func (a *ArticleContract) GetArticle(ctx context.Context, id uint64) (*domain.Article, error) {
	out, err := a.call(ctx, "getArticle", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(articleTuple)).(*articleTuple)
	if t.Title == "" && t.Content == "" {
		return nil, nil
	}
	article := t.toDomain()
	article.ID = id
	return &article, nil
}

// GetArticles fetches every article.
func (a *ArticleContract) GetArticles(ctx context.Context) ([]domain.Article, error) {
	out, err := a.call(ctx, "getArticles")
	if err != nil {
		return nil, err
	}
	return decodeArticles(out[0]), nil
}

// CreateArticle publishes an article and returns its id from the
// ArticleCreated event, or -1 when the receipt carries none.
func (a *ArticleContract) CreateArticle(ctx context.Context, article domain.Article) (int64, error) {
	receipt, err := a.send(ctx, "createArticle", article.Title, nil,
		article.Title, article.Content, article.Category, string(article.Difficulty), big.NewInt(int64(article.ReadTime)))
	if err != nil {
		return -1, err
	}

	var ev articleCreatedEvent
	found, err := a.findEvent(receipt, "ArticleCreated", &ev)
	if err != nil {
		return -1, err
	}
	if !found || ev.ArticleId == nil || !ev.ArticleId.IsInt64() {
		return -1, nil
	}
	return ev.ArticleId.Int64(), nil
}

// IncrementView adds one view to the article.
func (a *ArticleContract) IncrementView(ctx context.Context, id uint64) error {
	_, err := a.send(ctx, "incrementView", "article "+strconv.FormatUint(id, 10), nil, new(big.Int).SetUint64(id))
	return err
}

// RewardUser pays the reading reward to user. The returned message comes
// from the UserRewarded event and is empty when the event is absent.
func (a *ArticleContract) RewardUser(ctx context.Context, user common.Address, id uint64) (string, error) {
	receipt, err := a.send(ctx, "rewardUser", "article "+strconv.FormatUint(id, 10), nil, user, new(big.Int).SetUint64(id))
	if err != nil {
		return "", err
	}
	var ev userRewardedEvent
	found, err := a.findEvent(receipt, "UserRewarded", &ev)
	if err != nil || !found {
		return "", err
	}
	return ev.Message, nil
}

func decodeArticles(raw interface{}) []domain.Article {
	tuples := *abi.ConvertType(raw, new([]articleTuple)).(*[]articleTuple)
	articles := make([]domain.Article, 0, len(tuples))
	for _, t := range tuples {
		articles = append(articles, t.toDomain())
	}
	return articles
}

func (t articleTuple) toDomain() domain.Article {
	return domain.Article{
		ID:         toUint64(t.Id),
		Title:      t.Title,
		Content:    t.Content,
		Category:   t.Category,
		Difficulty: domain.Difficulty(t.Difficulty),
		ReadTime:   int(toUint64(t.ReadTime)),
		Views:      toUint64(t.Views),
		Author:     t.Author,
	}
}
