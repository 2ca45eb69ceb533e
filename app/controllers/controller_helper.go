package controllers

import (
	"github.com/ManuelReschke/BookFox/app/repository"
)

func getUserRepo() repository.UserRepository {
	return repository.GetGlobalFactory().GetUserRepository()
}

func getShopRepo() repository.ShopRepository {
	return repository.GetGlobalFactory().GetShopRepository()
}

func getBookingRepo() repository.BookingRepository {
	return repository.GetGlobalFactory().GetBookingRepository()
}

func getNotificationRepo() repository.NotificationRepository {
	return repository.GetGlobalFactory().GetNotificationRepository()
}

func getDiscountCodeRepo() repository.DiscountCodeRepository {
	return repository.GetGlobalFactory().GetDiscountCodeRepository()
}
