package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"

	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/tr"
)

// ProductRepo реализует репозиторий каталога поверх PostgreSQL.
// Цены хранятся в bigint-копейках и конвертируются в decimal на границе.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{
		pool: pool,
	}
}

const productColumns = `
	pr.id, pr.name, pr.description, pr.price, pr.stock, pr.tags,
	pr.seller_id, cat.name, pr.created_at, pr.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// escapeLike гасит спецсимволы LIKE в пользовательском вводе, чтобы запрос
// "100%" искал подстроку "100%", а не произвольный хвост.
var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace

func scanProductRow(sc rowScanner, extra ...any) (usecase.ProductRow, error) {
	var (
		row   usecase.ProductRow
		cents int64
	)

	dest := []any{
		&row.ID, &row.Name, &row.Description, &cents, &row.Stock, &row.Tags,
		&row.SellerID, &row.CategoryName, &row.CreatedAt, &row.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := sc.Scan(dest...); err != nil {
		return usecase.ProductRow{}, err
	}

	row.Price = decimal.New(cents, -2)

	return row, nil
}

// searchConditions собирает WHERE-часть лексического поиска. Совпадение —
// подстрока в названии/описании/тегах либо токенное совпадение tsquery;
// ранжирует выдачу вызывающий слой.
func searchConditions(query string, filters usecase.SearchFilters) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if strings.TrimSpace(query) != "" {
		// подстрочное совпадение идёт с экранированным запросом, токенное
		// tsquery — с исходным
		args = append(args, escapeLike(query))
		like := len(args)
		args = append(args, query)
		ts := len(args)
		conds = append(conds, fmt.Sprintf(`(
			pr.name ILIKE '%%' || $%d || '%%' OR
			pr.description ILIKE '%%' || $%d || '%%' OR
			array_to_string(pr.tags, ' ') ILIKE '%%' || $%d || '%%' OR
			to_tsvector('english', pr.name || ' ' || pr.description) @@ plainto_tsquery('english', $%d)
		)`, like, like, like, ts))
	}

	if filters.Category != nil {
		args = append(args, escapeLike(*filters.Category))
		conds = append(conds, fmt.Sprintf("cat.name ILIKE $%d", len(args)))
	}

	if filters.MinPrice != nil {
		args = append(args, filters.MinPrice.Shift(2).IntPart())
		conds = append(conds, fmt.Sprintf("pr.price >= $%d", len(args)))
	}

	if filters.MaxPrice != nil {
		args = append(args, filters.MaxPrice.Shift(2).IntPart())
		conds = append(conds, fmt.Sprintf("pr.price <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "TRUE", args
	}

	return strings.Join(conds, " AND "), args
}

// SearchCandidates возвращает окно кандидатов поиска, новее выше.
func (p *ProductRepo) SearchCandidates(ctx context.Context, query string, filters usecase.SearchFilters, cap int) ([]usecase.ProductRow, error) {
	where, args := searchConditions(query, filters)
	args = append(args, cap)

	sql := fmt.Sprintf(`
		SELECT %s
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE %s
		ORDER BY pr.created_at DESC
		LIMIT $%d
	`, productColumns, where, len(args))

	return p.queryRows(ctx, sql, args)
}

// CountProducts считает все совпадения поиска без окна кандидатов.
func (p *ProductRepo) CountProducts(ctx context.Context, query string, filters usecase.SearchFilters) (int64, error) {
	where, args := searchConditions(query, filters)

	sql := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE %s
	`, where)

	var total int64
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return total, nil
}

// SearchByCategory возвращает товары категории, новее выше.
func (p *ProductRepo) SearchByCategory(ctx context.Context, category string, limit int) ([]usecase.ProductRow, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE cat.name ILIKE '%%' || $1 || '%%'
		ORDER BY pr.created_at DESC
		LIMIT $2
	`, productColumns)

	return p.queryRows(ctx, sql, []any{escapeLike(category), limit})
}

// SuggestNames возвращает уникальные названия товаров по префиксу.
func (p *ProductRepo) SuggestNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	sql := `
		SELECT DISTINCT name
		FROM products
		WHERE name ILIKE $1 || '%'
		ORDER BY name
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, sql, escapeLike(prefix), limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	names := make([]string, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// GetProductInfo возвращает (nil, nil), если товара нет.
func (p *ProductRepo) GetProductInfo(ctx context.Context, productID int64) (*usecase.ProductRow, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = $1
	`, productColumns)

	row, err := scanProductRow(p.pool.QueryRow(ctx, sql, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &row, nil
}

// GetProductsInfo возвращает живые данные каталога по идентификаторам,
// включая название категории.
func (p *ProductRepo) GetProductsInfo(ctx context.Context, ids []int64) (map[int64]usecase.ProductRow, error) {
	if len(ids) == 0 {
		return map[int64]usecase.ProductRow{}, nil
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = ANY($1)
	`, productColumns)

	rows, err := p.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make(map[int64]usecase.ProductRow, len(ids))
	for rows.Next() {
		row, err := scanProductRow(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result[row.ID] = row
	}

	return result, rows.Err()
}

// TextRank — текстовая ветвь гибридного поиска: ts_rank по названию и
// описанию среди товаров в наличии.
func (p *ProductRepo) TextRank(ctx context.Context, query string, limit int) ([]usecase.TextRankRow, error) {
	sql := fmt.Sprintf(`
		SELECT %s,
			ts_rank(
				to_tsvector('english', pr.name || ' ' || pr.description),
				plainto_tsquery('english', $1)
			) AS rank
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.stock > 0
		  AND to_tsvector('english', pr.name || ' ' || pr.description) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2
	`, productColumns)

	rows, err := p.pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.TextRankRow, 0, limit)
	for rows.Next() {
		var rank float64
		row, err := scanProductRow(rows, &rank)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, usecase.TextRankRow{ProductRow: row, TextRank: rank})
	}

	return result, rows.Err()
}

// DecrementStock уменьшает остаток внутри транзакции конверсии. Условие
// stock >= qty — единственная защита от перепродажи: ноль затронутых строк
// означает, что строка проиграла гонку либо товара нет.
func (p *ProductRepo) DecrementStock(ctx context.Context, productID int64, quantity int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, quantity, productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if res.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if !exists {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return e.Wrap(whereami.WhereAmI(), e.ErrInsufficientStock)
}

func (p *ProductRepo) queryRows(ctx context.Context, sql string, args []any) ([]usecase.ProductRow, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.ProductRow, 0)
	for rows.Next() {
		row, err := scanProductRow(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, row)
	}

	return result, rows.Err()
}
