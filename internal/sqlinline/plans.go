package sqlinline

const QPlanExists = `--sql 3f1c9b7e-52a4-4d0e-9c61-7a2f4e8b1d05
select exists(
    select 1
    from meal_plans
    where id = $1::bigint
      and deleted_at is null
);
`

const QClientNameForPlan = `--sql c4e27a90-18d3-4b6f-a5e2-0d9f3b7c6a14
select coalesce(nullif(trim(c.display_name), ''), trim(c.first_name || ' ' || c.last_name))
from meal_plans p
join clients c on c.id = p.client_id
where p.id = $1::bigint
  and p.deleted_at is null
limit 1;
`
