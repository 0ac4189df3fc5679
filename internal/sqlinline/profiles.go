package sqlinline

const QSelectProfile = `--sql 3f1f6d2a-8f0e-4bb0-9d4c-5a61f2c90b17
select account_id, created_at, is_premium, entitlement_id, product_id, granted_at,
       metered_usage_count, favorites_count, applied_purchase_ids
from profiles
where account_id = $1::text
limit 1;
`

const QCreateProfile = `--sql b7a90c44-2a3f-4c8e-8a7d-0c2f1d5e6a88
with incoming as (
    select $1::text as account_id, $2::timestamptz as created_at
),
inserted as (
    insert into profiles (account_id, created_at, is_premium, metered_usage_count, favorites_count, applied_purchase_ids)
    select account_id, created_at, false, 0, 0, '{}'::text[] from incoming
    on conflict (account_id) do nothing
    returning account_id, created_at, is_premium, entitlement_id, product_id, granted_at,
              metered_usage_count, favorites_count, applied_purchase_ids
)
select account_id, created_at, is_premium, entitlement_id, product_id, granted_at,
       metered_usage_count, favorites_count, applied_purchase_ids
from inserted
union all
select account_id, created_at, is_premium, entitlement_id, product_id, granted_at,
       metered_usage_count, favorites_count, applied_purchase_ids
from profiles
where account_id = $1::text and not exists (select 1 from inserted)
limit 1;
`

// QMergeProfile applies every merge shape in one statement: coalesced field
// sets, atomic counter increments, ledger append, and the optional
// purchase-absent guard ($9). Zero rows means the guard failed or the
// profile is missing; callers disambiguate with QSelectProfile.
const QMergeProfile = `--sql 6c5d8f02-94e1-47ab-b3c4-7d2a9e0f1b63
update profiles set
    is_premium = coalesce($2::boolean, is_premium),
    entitlement_id = coalesce($3::text, entitlement_id),
    product_id = coalesce($4::text, product_id),
    granted_at = coalesce($5::timestamptz, granted_at),
    metered_usage_count = metered_usage_count + $6::int,
    favorites_count = greatest(favorites_count + $7::int, 0),
    applied_purchase_ids = applied_purchase_ids || $8::text[]
where account_id = $1::text
  and ($9::text is null or not ($9::text = any(applied_purchase_ids)))
returning account_id, created_at, is_premium, entitlement_id, product_id, granted_at,
          metered_usage_count, favorites_count, applied_purchase_ids;
`
