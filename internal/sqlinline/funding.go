package sqlinline

const QInsertFunding = `--sql c93120f2-4ed3-4e65-ab25-a095e3ebbd74
insert into funding (id, uid, name, email, amount_int, currency, payment_intent_id, created_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::bigint, $5::text, nullif($6::text, ''), $7::timestamptz)
returning id;
`

const QListFunding = `--sql 4a659cff-9555-4732-ad5e-0d2cb023c5c1
select id, uid, name, email, amount_int, currency, coalesce(payment_intent_id, ''), created_at
from funding
order by created_at desc, id desc;
`

const QSumFunding = `--sql 93c01c34-5ee4-4ed4-a2fd-48cb73b93dcc
select coalesce(sum(amount_int), 0)::bigint
from funding;
`
