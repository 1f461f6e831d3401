package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/redis/go-redis/v9"
)

// ErrInsufficientStock is returned when an item cannot be supplied in the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// Stock keys share the {inventory} hash tag so the scripts stay valid on a cluster.
const (
	stockKeyFormat       = "{inventory}:stock:%d"
	reservedKeyFormat    = "{inventory}:reserved:%d"
	reservationKeyFormat = "{inventory}:reservation:%s"
)

// checkScript returns the 1-based index of the first key whose stock is below its
// quantity, or 0 when every item is available.
var checkScript = redis.NewScript(`
for i, key in ipairs(KEYS) do
	local stock = tonumber(redis.call('GET', key) or '0')
	if stock < tonumber(ARGV[i]) then
		return i
	end
end
return 0
`)

// reserveScript moves stock to the reserved counters, all or nothing, and records
// the order's reservation. KEYS holds n stock keys, n reserved keys and the
// reservation hash; ARGV holds n quantities followed by n item ids. An order that
// already holds a reservation is left unchanged.
var reserveScript = redis.NewScript(`
local n = (#KEYS - 1) / 2
local reservation = KEYS[#KEYS]
if redis.call('EXISTS', reservation) == 1 then
	return 0
end
for i = 1, n do
	local stock = tonumber(redis.call('GET', KEYS[i]) or '0')
	if stock < tonumber(ARGV[i]) then
		return i
	end
end
for i = 1, n do
	redis.call('DECRBY', KEYS[i], ARGV[i])
	redis.call('INCRBY', KEYS[n + i], ARGV[i])
	redis.call('HSET', reservation, ARGV[n + i], ARGV[i])
end
return 0
`)

// releaseScript gives back what the order's reservation holds and deletes it.
// KEYS holds the reservation hash, n stock keys and n reserved keys; ARGV holds the
// n item ids. Items no longer in the reservation are skipped.
var releaseScript = redis.NewScript(`
local n = #ARGV
for i = 1, n do
	local qty = tonumber(redis.call('HGET', KEYS[1], ARGV[i]) or '0')
	if qty > 0 then
		redis.call('INCRBY', KEYS[1 + i], qty)
		redis.call('DECRBY', KEYS[1 + n + i], qty)
	end
end
redis.call('DEL', KEYS[1])
return 0
`)

// Inventory implements ports.InventoryService with per-item stock counters.
// What each order reserved is kept in a hash per order, so releasing one order
// never touches units held by another.
type Inventory struct {
	client redis.UniversalClient
}

// NewInventory creates an inventory backed by client.
func NewInventory(client redis.UniversalClient) *Inventory {
	return &Inventory{client: client}
}

// SetStock sets the available stock of an item and resets its reserved counter.
func (i *Inventory) SetStock(ctx context.Context, itemID int64, quantity int) error {
	_, err := i.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf(stockKeyFormat, itemID), quantity, 0)
		pipe.Del(ctx, fmt.Sprintf(reservedKeyFormat, itemID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("set stock of item %d: %w", itemID, err)
	}
	return nil
}

// Stock returns the available and reserved units of an item.
func (i *Inventory) Stock(ctx context.Context, itemID int64) (available, reserved int, err error) {
	values, err := i.client.MGet(ctx, fmt.Sprintf(stockKeyFormat, itemID), fmt.Sprintf(reservedKeyFormat, itemID)).Result()
	if err != nil {
		return 0, 0, err
	}
	if available, err = counter(values[0]); err != nil {
		return 0, 0, err
	}
	if reserved, err = counter(values[1]); err != nil {
		return 0, 0, err
	}
	return available, reserved, nil
}

// CheckAvailability fails with ErrInsufficientStock naming the first short item.
// Quantities of repeated items are added up.
func (i *Inventory) CheckAvailability(ctx context.Context, items []order.LineItem) error {
	ids, quantities := aggregate(items)
	return i.run(ctx, checkScript, ids, stockKeys(ids), quantities)
}

// Reserve holds stock of every item for orderID, or of none of them. Reserving again
// for an order that holds a reservation does nothing.
func (i *Inventory) Reserve(ctx context.Context, orderID kernel.UUID, items []order.LineItem) error {
	ids, quantities := aggregate(items)
	keys := append(append(stockKeys(ids), reservedKeys(ids)...), reservationKey(orderID))
	args := quantities
	for _, id := range ids {
		args = append(args, id)
	}
	return i.run(ctx, reserveScript, ids, keys, args)
}

// Release returns the stock reserved for orderID. An order without a reservation
// releases nothing.
func (i *Inventory) Release(ctx context.Context, orderID kernel.UUID) error {
	key := reservationKey(orderID)
	held, err := i.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read reservation of order %s: %w", orderID, err)
	}
	if len(held) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(held))
	for field := range held {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return fmt.Errorf("reservation of order %s has item %q: %w", orderID, field, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	keys := append(append([]string{key}, stockKeys(ids)...), reservedKeys(ids)...)
	return i.run(ctx, releaseScript, ids, keys, args)
}

// Reserved returns the quantities currently reserved for orderID by item id.
func (i *Inventory) Reserved(ctx context.Context, orderID kernel.UUID) (map[int64]int, error) {
	held, err := i.client.HGetAll(ctx, reservationKey(orderID)).Result()
	if err != nil {
		return nil, err
	}
	reserved := make(map[int64]int, len(held))
	for field, value := range held {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, err
		}
		if reserved[id], err = strconv.Atoi(value); err != nil {
			return nil, err
		}
	}
	return reserved, nil
}

func (i *Inventory) run(ctx context.Context, script *redis.Script, ids []int64, keys []string, args []any) error {
	if len(ids) == 0 {
		return nil
	}

	short, err := script.Run(ctx, i.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("run inventory script: %w", err)
	}
	if short > 0 {
		return fmt.Errorf("%w: item %d", ErrInsufficientStock, ids[short-1])
	}
	return nil
}

// aggregate sums quantities per item id, ordered by id.
func aggregate(items []order.LineItem) ([]int64, []any) {
	totals := make(map[int64]int, len(items))
	for _, item := range items {
		totals[item.ItemID()] += item.Quantity()
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	quantities := make([]any, 0, len(ids))
	for _, id := range ids {
		quantities = append(quantities, totals[id])
	}
	return ids, quantities
}

func stockKeys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf(stockKeyFormat, id))
	}
	return keys
}

func reservedKeys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf(reservedKeyFormat, id))
	}
	return keys
}

func reservationKey(orderID kernel.UUID) string {
	return fmt.Sprintf(reservationKeyFormat, orderID.String())
}

func counter(value any) (int, error) {
	if value == nil {
		return 0, nil
	}
	s, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected counter type %T", value)
	}
	return strconv.Atoi(s)
}
